package parser

import (
	"strings"

	"github.com/crimson-sun/pumpverify/internal/model"
)

// parseHeaderBlock handles the header-block + table layout:
//
//	Pump Serial No,EDW12345678
//	Firmware Version,1.4.2
//
//	Section,Parameter,Current_Value
//	FLOW,RATE_LIMIT,120
//
// Leading key,value lines populate metadata through the shared key mapping,
// stopping at a blank line or a line starting with "Section". The remainder,
// from the first "Section" line on, is the configuration table.
// Input that yields neither metadata nor a table is not this layout.
func parseHeaderBlock(lines []string) (*model.LogRecord, error) {
	meta := make(map[string]string)

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "Section") {
			break
		}
		if key, value, found := strings.Cut(line, ","); found {
			applyKeyValue(meta, key, value, "")
		}
	}

	var config *model.Table
	var csvLines []string
	collecting := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "Section") {
			collecting = true
		}
		if collecting && line != "" && strings.Contains(line, ",") {
			csvLines = append(csvLines, line)
		}
	}
	if len(csvLines) > 0 {
		if t, err := readCSVTable(csvLines); err == nil {
			config = t
		}
	}

	if len(meta) == 0 && config == nil {
		return nil, ErrNotApplicable
	}
	return newRecord(meta, config), nil
}
