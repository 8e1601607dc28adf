package pumpverify

// Result reports the outcome of processing one log file.
// OK is false only when the pipeline itself broke (unparseable file,
// missing serial, failed report or export). A pump whose serial is not on
// the master list still produces OK=true with a FAIL verdict on disk.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Verdict is the outcome of matching one serial number against the
// master configuration list.
// This is the stable public type — internal representations may evolve
// independently without breaking consumers.
type Verdict struct {
	Pass      bool              `json:"pass"`
	ConfigTag string            `json:"config_tag"`       // "N/A" when unmatched
	Detail    map[string]string `json:"detail,omitempty"` // e.g. "error": reason
}
