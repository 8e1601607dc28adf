// Package verifier matches pump serials against the master reference list.
package verifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/crimson-sun/pumpverify/internal/model"
	"github.com/crimson-sun/pumpverify/internal/serial"
)

// Master list column names.
const (
	colSerial         = "Pump_Serial_No"
	colTargetTag      = "Target_Config_Tag"
	colParameterMatch = "Parameter_Match"
	colSectionMatch   = "Section_Match"
	colTargetValue    = "Target_Value"
	colOriginalValue  = "Original_Value"
	colSection        = "Section"
)

// ErrMissingSerialColumn marks a master list without the required
// serial-identity column.
var ErrMissingSerialColumn = errors.New("verifier: master list missing required column " + colSerial)

// Verifier verifies serials against a master list loaded from an .xlsx or
// .csv file. The list is loaded once, on first use or via Load, and cached
// for the lifetime of the instance; concurrent Verify calls share the cached
// rows read-only. Picking up a changed file requires a new Verifier.
type Verifier struct {
	path string

	once    sync.Once
	rows    []model.MasterRow
	loadErr error
}

// New creates a Verifier for the master list at path. The file is not read
// until Load or the first Verify.
func New(path string) *Verifier {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Verifier{path: path}
}

// Load reads and caches the master list. Safe to call multiple times; only
// the first call does work. A load failure is sticky — every subsequent
// Verify fails until a new instance is created with a corrected file.
func (v *Verifier) Load() error {
	v.once.Do(func() {
		v.rows, v.loadErr = loadMasterList(v.path)
		if v.loadErr == nil {
			slog.Debug("master list loaded", "path", v.path, "rows", len(v.rows))
		}
	})
	return v.loadErr
}

// Rows returns the cached master rows, loading on first use.
func (v *Verifier) Rows() ([]model.MasterRow, error) {
	if err := v.Load(); err != nil {
		return nil, err
	}
	return v.rows, nil
}

// Verify matches a serial against the master list and always returns a
// verdict. Matching compares digit-extractions; the first matching row in
// table order wins. When expectedTag is non-empty it must equal the matched
// row's tag case-insensitively. No match, an unloadable list, or a serial
// without digits all degrade to a FAIL verdict with an "error" detail rather
// than an error return.
func (v *Verifier) Verify(serialNo, expectedTag string) *model.Verdict {
	if err := v.Load(); err != nil {
		return failVerdict(fmt.Sprintf("failed to load master list: %v", err))
	}

	digits := serial.Digits(serialNo)
	if digits == "" {
		return failVerdict(fmt.Sprintf("invalid serial number format: %s", serialNo))
	}

	var row *model.MasterRow
	for i := range v.rows {
		if v.rows[i].SerialDigits == digits {
			row = &v.rows[i]
			break
		}
	}
	if row == nil {
		return failVerdict(fmt.Sprintf("serial number %s not found in master list", serialNo))
	}

	if expectedTag != "" && !strings.EqualFold(row.TargetConfigTag, expectedTag) {
		return &model.Verdict{
			Pass:      false,
			ConfigTag: row.TargetConfigTag,
			Detail: map[string]string{
				"error": fmt.Sprintf("config tag mismatch: expected %s, but found %s", row.TargetConfigTag, expectedTag),
			},
		}
	}

	return &model.Verdict{
		Pass:      true,
		ConfigTag: row.TargetConfigTag,
		Detail: map[string]string{
			"serial_number":     serialNo,
			"target_config_tag": row.TargetConfigTag,
			"parameter_match":   row.ParameterMatch,
			"section_match":     row.SectionMatch,
			"target_value":      row.TargetValue,
			"original_value":    row.OriginalValue,
			"section":           row.Section,
		},
	}
}

func failVerdict(msg string) *model.Verdict {
	return &model.Verdict{
		Pass:      false,
		ConfigTag: model.UnmatchedTag,
		Detail:    map[string]string{"error": msg},
	}
}

// loadMasterList reads the reference table and derives the digits-only
// identity key per row. Rows sharing the same digits are kept as-is; match
// resolution is first-in-table-order.
func loadMasterList(path string) ([]model.MasterRow, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("verifier: master list %s is empty", path)
	}

	si := table.ColumnIndex(colSerial)
	if si < 0 {
		return nil, ErrMissingSerialColumn
	}

	get := func(row int, name string) string {
		i := table.ColumnIndex(name)
		if i < 0 {
			return ""
		}
		return strings.TrimSpace(table.Cell(row, i))
	}

	rows := make([]model.MasterRow, 0, len(table.Rows))
	for i := range table.Rows {
		raw := strings.TrimSpace(table.Cell(i, si))
		rows = append(rows, model.MasterRow{
			SerialRaw:       raw,
			SerialDigits:    serial.Digits(raw),
			TargetConfigTag: get(i, colTargetTag),
			ParameterMatch:  get(i, colParameterMatch),
			SectionMatch:    get(i, colSectionMatch),
			TargetValue:     get(i, colTargetValue),
			OriginalValue:   get(i, colOriginalValue),
			Section:         get(i, colSection),
		})
	}
	return rows, nil
}

// readTable loads the master file as a flat table. .xlsx/.xls goes through
// excelize, anything else is read as CSV.
func readTable(path string) (*model.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return readXLSXTable(path)
	default:
		return readCSVFile(path)
	}
}

func readXLSXTable(path string) (*model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("verifier: open master list %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("verifier: master list %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("verifier: read master list %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("verifier: master list %s is empty", path)
	}

	t := &model.Table{Columns: rows[0]}
	for _, r := range rows[1:] {
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

func readCSVFile(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("verifier: open master list %s: %w", path, err)
	}
	defer f.Close()

	// Tolerate a UTF-8 BOM; exported lists often carry one.
	r := csv.NewReader(transform.NewReader(f, unicode.UTF8BOM.NewDecoder()))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("verifier: read master list %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("verifier: master list %s is empty", path)
	}

	t := &model.Table{Columns: records[0]}
	t.Rows = append(t.Rows, records[1:]...)
	return t, nil
}
