package model

// Metadata keys populated by the parser. All are optional; a missing key is
// simply absent from the map.
const (
	MetaModel           = "model"
	MetaSoftwareVersion = "software_version"
	MetaFirmwareVersion = "firmware_version"
	MetaDate            = "date"
	MetaToolName        = "tool_name"
)

// LogRecord is the normalized form of one exported pump configuration log.
// Constructed fresh per input file by the parser and immutable once returned.
type LogRecord struct {
	SerialNumber string            // raw serial as found in the source; "" when the log carried none
	Metadata     map[string]string // Meta* keys
	Config       *Table            // tabular configuration block, nil when the log had none
}

// Meta returns the metadata value for key, or "" when absent.
func (r *LogRecord) Meta(key string) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}
