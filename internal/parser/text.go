package parser

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/crimson-sun/pumpverify/internal/model"
)

// readTextFile reads path as UTF-8 text, stripping a leading BOM when
// present. Pump toolkits on Windows export CSV with a UTF-8 signature.
func readTextFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	dec := unicode.UTF8BOM.NewDecoder()
	data, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// splitLines splits text into trimmed lines, dropping the trailing empty
// line a final newline produces. Interior blank lines are kept — the
// header-block layout uses them as a terminator.
func splitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

// readCSVTable parses comma-separated lines into a Table with the first line
// as header. Ragged and loosely quoted rows are tolerated; the exporters are
// not strict about quoting.
func readCSVTable(lines []string) (*model.Table, error) {
	if len(lines) == 0 {
		return nil, ErrNotApplicable
	}
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.FieldsPerRecord = -1
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

func trimFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

// looksLikeCSVHeader reports whether line plausibly opens a tabular block:
// more than two comma-separated fields and no digit among the first
// characters of the first field.
func looksLikeCSVHeader(line string) bool {
	parts := strings.Split(line, ",")
	if len(parts) <= 2 {
		return false
	}
	first := strings.TrimSpace(parts[0])
	if len(first) > 3 {
		first = first[:3]
	}
	for i := 0; i < len(first); i++ {
		if first[i] >= '0' && first[i] <= '9' {
			return false
		}
	}
	return true
}
