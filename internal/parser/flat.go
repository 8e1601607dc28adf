package parser

import (
	"encoding/csv"
	"strings"

	"github.com/crimson-sun/pumpverify/internal/model"
)

// serialColumns are the recognized serial-identity header names, in match
// priority order.
var serialColumns = []string{
	"Pump Serial No",
	"Serial No",
	"SerialNo",
	"Serial Number",
	"Serial_No",
}

// metadataColumns maps flat-table header names to metadata keys.
var metadataColumns = map[string]string{
	"Model":            model.MetaModel,
	"Software Version": model.MetaSoftwareVersion,
	"Firmware Version": model.MetaFirmwareVersion,
	"Date":             model.MetaDate,
}

// parseFlat handles the flat tabular layout: a CSV whose header row carries a
// recognized serial column. The serial and metadata come from the first data
// row; the whole table becomes the configuration block.
//
// The read is strict about field counts: a ragged file is not a flat table
// and falls through to the header-block strategy instead.
func parseFlat(lines []string) (*model.LogRecord, error) {
	t, err := readUniformCSVTable(lines)
	if err != nil {
		return nil, ErrNotApplicable
	}

	serialCol := -1
	for _, name := range serialColumns {
		if idx := t.ColumnIndex(name); idx >= 0 {
			serialCol = idx
			break
		}
	}
	if serialCol < 0 {
		return nil, ErrNotApplicable
	}

	meta := make(map[string]string)
	if len(t.Rows) > 0 {
		if v := strings.TrimSpace(t.Cell(0, serialCol)); v != "" {
			meta[serialKey] = v
		}
		for name, key := range metadataColumns {
			if idx := t.ColumnIndex(name); idx >= 0 {
				if v := strings.TrimSpace(t.Cell(0, idx)); v != "" {
					meta[key] = v
				}
			}
		}
	}

	return newRecord(meta, t), nil
}

// readUniformCSVTable parses lines as CSV requiring every record to match the
// header's field count.
func readUniformCSVTable(lines []string) (*model.Table, error) {
	if len(lines) == 0 {
		return nil, ErrNotApplicable
	}
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return nil, ErrNotApplicable
	}
	t := &model.Table{Columns: trimFields(records[0])}
	for _, rec := range records[1:] {
		t.Rows = append(t.Rows, trimFields(rec))
	}
	return t, nil
}
