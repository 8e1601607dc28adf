// Package parser converts exported pump configuration logs into normalized
// records. Four source layouts are supported; detection runs a prioritized
// strategy list where each strategy either claims the input or reports
// ErrNotApplicable so the next one can try.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/crimson-sun/pumpverify/internal/model"
)

// ErrNotApplicable is returned by a strategy whose layout does not match the
// input. Parse falls through to the next strategy; any other error is final.
var ErrNotApplicable = errors.New("parser: layout not applicable")

// serialKey is the internal metadata key strategies write the serial under
// before it is lifted onto LogRecord.SerialNumber.
const serialKey = "serial_number"

// Extensions lists the input file extensions the parser accepts, lower-case.
var Extensions = []string{".csv", ".xlsx", ".xls"}

// Accepts reports whether path has one of the accepted extensions.
func Accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Parse reads the log file at path and produces a normalized record.
// Spreadsheet files go through the sheet reader; everything else is decoded
// as BOM-tolerant text and run through the text strategies. I/O errors are
// fatal; a structural mismatch in one layout falls through to the next.
// A record with an empty SerialNumber is a successful parse — missing-serial
// handling belongs to the caller.
func Parse(path string) (rec *model.LogRecord, err error) {
	// The strategies assume well-formed input in places; a panic on a
	// degenerate file must surface as a parse failure, not take down the run.
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("parser: %s: %v", path, r)
		}
	}()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" || ext == ".xls" {
		return parseSpreadsheet(path)
	}

	text, err := readTextFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", path, err)
	}
	rec, err = parseText(text)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", path, err)
	}
	return rec, nil
}

// parseText runs the text-layout strategies in priority order: sectioned,
// flat table, header-block.
func parseText(text string) (*model.LogRecord, error) {
	lines := splitLines(text)

	for _, strategy := range []func([]string) (*model.LogRecord, error){
		parseSectioned,
		parseFlat,
		parseHeaderBlock,
	} {
		rec, err := strategy(lines)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, errors.New("unrecognized log layout")
}

// newRecord lifts the internal metadata map into a LogRecord.
func newRecord(meta map[string]string, config *model.Table) *model.LogRecord {
	rec := &model.LogRecord{
		SerialNumber: meta[serialKey],
		Config:       config,
	}
	delete(meta, serialKey)
	if len(meta) > 0 {
		rec.Metadata = meta
	}
	return rec
}

// applyKeyValue maps a free-form key to a metadata field by case-insensitive
// substring, mirroring the key vocabulary pump tools emit. section is the
// current bracketed-section name, "" outside sectioned layouts.
func applyKeyValue(meta map[string]string, key, value, section string) {
	k := strings.ToLower(strings.TrimSpace(key))
	v := strings.TrimSpace(value)
	if k == "" || v == "" {
		return
	}
	switch {
	case strings.Contains(k, "serial") && strings.Contains(k, "no"):
		meta[serialKey] = v
	case strings.Contains(k, "model") && strings.Contains(k, "type"):
		meta[model.MetaModel] = v
	case k == "model":
		meta[model.MetaModel] = v
	case strings.Contains(k, "firmware"):
		meta[model.MetaFirmwareVersion] = v
	case strings.Contains(k, "version") && section == "SYSTEM_INFO":
		meta[model.MetaSoftwareVersion] = v
	case k == "date":
		meta[model.MetaDate] = v
	case k == "tool_name":
		meta[model.MetaToolName] = v
	}
}
