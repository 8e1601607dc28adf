package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/crimson-sun/pumpverify/internal/model"
)

// headerTokens mark a spreadsheet first row as a column header row.
var headerTokens = []string{"serial", "pump", "model", "version"}

// parseSpreadsheet handles .xlsx/.xls input. The first sheet is read; when
// its first row looks like a header (any recognized token among the
// non-empty cells) the sheet is a single-record table. Otherwise the sheet
// is re-serialized to comma-separated text through a temp file and run back
// through the text strategies.
func parseSpreadsheet(path string) (*model.LogRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: open spreadsheet %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("parser: %s: spreadsheet has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("parser: read sheet %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parser: %s: spreadsheet is empty", path)
	}

	if isHeaderRow(rows[0]) {
		return parseSheetTable(rows)
	}

	text, err := sheetToText(rows)
	if err != nil {
		return nil, fmt.Errorf("parser: convert sheet %s: %w", path, err)
	}
	rec, err := parseText(text)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", path, err)
	}
	return rec, nil
}

// isHeaderRow reports whether the row's non-empty cells read like column
// headers rather than data.
func isHeaderRow(row []string) bool {
	var nonEmpty []string
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(c))
		}
	}
	if len(nonEmpty) <= 2 {
		return false
	}
	joined := strings.ToLower(strings.Join(nonEmpty, " "))
	for _, tok := range headerTokens {
		if strings.Contains(joined, tok) {
			return true
		}
	}
	return false
}

// parseSheetTable treats row 0 as the header and row 1 as the single data
// record, resolving metadata columns by case-insensitive substring.
func parseSheetTable(rows [][]string) (*model.LogRecord, error) {
	t := &model.Table{Columns: trimFields(rows[0])}
	for _, r := range rows[1:] {
		t.Rows = append(t.Rows, trimFields(r))
	}

	meta := make(map[string]string)
	for i, col := range t.Columns {
		c := strings.ToLower(col)
		v := strings.TrimSpace(t.Cell(0, i))
		if v == "" {
			continue
		}
		switch {
		case strings.Contains(c, "serial") && (strings.Contains(c, "no") || strings.Contains(c, "number")):
			meta[serialKey] = v
		case strings.Contains(c, "software") && strings.Contains(c, "version"):
			meta[model.MetaSoftwareVersion] = v
		case strings.Contains(c, "firmware") && strings.Contains(c, "version"):
			meta[model.MetaFirmwareVersion] = v
		case strings.Contains(c, "model"):
			meta[model.MetaModel] = v
		case strings.Contains(c, "date"):
			meta[model.MetaDate] = v
		}
	}

	return newRecord(meta, t), nil
}

// sheetToText writes the sheet rows as comma-joined lines through a temp
// file and reads the text back. The temp file is removed on every path.
func sheetToText(rows [][]string) (string, error) {
	tmp, err := os.CreateTemp("", "pumpverify-sheet-*.csv")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	werr := writeSheetLines(tmp, rows)
	cerr := tmp.Close()
	if werr != nil {
		return "", werr
	}
	if cerr != nil {
		return "", cerr
	}

	return readTextFile(tmpPath)
}

func writeSheetLines(f *os.File, rows [][]string) error {
	for _, row := range rows {
		empty := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		if _, err := f.WriteString(strings.Join(row, ",") + "\n"); err != nil {
			return err
		}
	}
	return nil
}
