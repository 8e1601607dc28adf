package model

// UnmatchedTag is the placeholder config tag carried by verdicts for serials
// absent from the master list.
const UnmatchedTag = "N/A"

// MasterRow is one row of the master reference list.
type MasterRow struct {
	SerialDigits    string // digits-only identity key derived from Pump_Serial_No
	SerialRaw       string // Pump_Serial_No as stored
	TargetConfigTag string

	// Pass-through detail fields, used only for report content.
	ParameterMatch string
	SectionMatch   string
	TargetValue    string
	OriginalValue  string
	Section        string
}

// Verdict is the outcome of matching a serial against the master list.
// A verdict is produced for every syntactically valid serial; no match
// degrades to Pass=false with ConfigTag=UnmatchedTag rather than an error.
type Verdict struct {
	Pass      bool
	ConfigTag string
	Detail    map[string]string // row detail fields on a match, "error" key otherwise
}

// Result returns the verdict as a report string.
func (v *Verdict) Result() string {
	if v.Pass {
		return "PASS"
	}
	return "FAIL"
}
