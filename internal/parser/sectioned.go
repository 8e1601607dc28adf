package parser

import (
	"strings"

	"github.com/crimson-sun/pumpverify/internal/model"
)

// parseSectioned handles the bracketed-section layout:
//
//	[SYSTEM_INFO]
//	Serial No: EDW12345678
//	Version = 2.1 (build 7)
//	...
//	Section,Parameter,Value
//	FLOW,RATE_LIMIT,120
//
// Section headers update the current-section context, key/value lines feed
// the metadata mapping, and the first line that looks like a CSV header
// starts the trailing configuration table.
func parseSectioned(lines []string) (*model.LogRecord, error) {
	if len(lines) == 0 || !strings.HasPrefix(strings.TrimSpace(lines[0]), "[") {
		return nil, ErrNotApplicable
	}

	meta := make(map[string]string)
	section := ""
	tableStart := -1

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			continue
		}

		if strings.Contains(line, ",") && looksLikeCSVHeader(line) {
			tableStart = i
			break
		}

		if key, value, ok := splitKeyValue(line); ok {
			applyKeyValue(meta, key, value, section)
		}
	}

	var config *model.Table
	if tableStart >= 0 {
		var csvLines []string
		for _, raw := range lines[tableStart:] {
			line := strings.TrimSpace(raw)
			if line != "" && strings.Contains(line, ",") {
				csvLines = append(csvLines, line)
			}
		}
		if t, err := readCSVTable(csvLines); err == nil {
			config = t
		}
	}

	return newRecord(meta, config), nil
}

// splitKeyValue splits "Key: Value", "Key = Value" or "Key: Value = V2 (Unit)"
// into key and value, truncating the value at the first '=' or '(' to strip
// units and annotations.
func splitKeyValue(line string) (key, value string, ok bool) {
	switch {
	case strings.Contains(line, ":"):
		k, rest, _ := strings.Cut(line, ":")
		v := strings.TrimSpace(rest)
		if before, _, found := strings.Cut(v, "="); found {
			v = strings.TrimSpace(before)
		}
		if before, _, found := strings.Cut(v, "("); found {
			v = strings.TrimSpace(before)
		}
		return strings.TrimSpace(k), v, true
	case strings.Contains(line, "="):
		k, rest, _ := strings.Cut(line, "=")
		v := strings.TrimSpace(rest)
		if before, _, found := strings.Cut(v, "("); found {
			v = strings.TrimSpace(before)
		}
		return strings.TrimSpace(k), v, true
	}
	return "", "", false
}
