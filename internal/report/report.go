// Package report writes the per-verification artifact set: a PDF result
// document, the parsed configuration table as CSV, and an archival copy of
// the original log, all under a `{serial}_{PASS|FAIL}` result folder with a
// shared `{shortSerial}_{timestamp}` filename prefix.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/crimson-sun/pumpverify/internal/model"
	"github.com/crimson-sun/pumpverify/internal/serial"
)

// timestampLayout is the filename timestamp format, second resolution.
// Uniqueness of artifact names within a result folder rests on it.
const timestampLayout = "20060102_150405"

// utf8BOM prefixes exported CSV so spreadsheet tools pick up the encoding.
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Builder emits result artifacts under outputRoot. Timestamps are rendered
// in a fixed reporting time zone.
type Builder struct {
	outputRoot string
	loc        *time.Location
}

// NewBuilder creates a Builder rooted at outputRoot, rendering timestamps in
// loc (nil defaults to UTC).
func NewBuilder(outputRoot string, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{outputRoot: outputRoot, loc: loc}
}

// ResultFolder resolves (and creates, idempotently) the result folder for a
// serial and verdict: {root}/{serial}_{PASS|FAIL}.
func (b *Builder) ResultFolder(serialNo string, pass bool) (string, error) {
	folder := filepath.Join(b.outputRoot, fmt.Sprintf("%s_%s", serialNo, resultString(pass)))
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("report: create result folder %s: %w", folder, err)
	}
	return folder, nil
}

// Prefix returns the shared filename prefix for a run:
// {shortened serial}_{YYYYMMDD_HHMMSS in the reporting zone}.
func (b *Builder) Prefix(serialNo string, ts time.Time) string {
	return fmt.Sprintf("%s_%s", serial.Shorten(serialNo, serial.DefaultShortLen), b.FormatTimestamp(ts))
}

// FormatTimestamp renders ts as YYYYMMDD_HHMMSS in the reporting zone.
func (b *Builder) FormatTimestamp(ts time.Time) string {
	return ts.In(b.loc).Format(timestampLayout)
}

// ExportParsed writes the configuration table as {prefix}_parsed.csv inside
// folder and returns the file path.
func (b *Builder) ExportParsed(table *model.Table, folder, prefix string) (string, error) {
	if table == nil {
		return "", fmt.Errorf("report: no configuration table to export")
	}
	path := filepath.Join(folder, prefix+"_parsed.csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("report: write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// Archive copies the original log into folder as {prefix}_log{ext}. Copy
// failures are logged and swallowed — archival is best-effort and never
// fails the report step.
func (b *Builder) Archive(logPath, folder, prefix string) {
	info, err := os.Stat(logPath)
	if err != nil || info.IsDir() {
		slog.Warn("archive: source log unavailable", "path", logPath, "error", err)
		return
	}
	dest := filepath.Join(folder, prefix+"_log"+filepath.Ext(logPath))
	if sameFile(logPath, dest) {
		return
	}
	if err := copyFile(logPath, dest); err != nil {
		slog.Warn("archive: copy failed", "from", logPath, "to", dest, "error", err)
	}
}

func resultString(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

func sameFile(a, b string) bool {
	ra, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	rb, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return ra == rb
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
