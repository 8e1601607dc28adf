package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/pumpverify/internal/model"
)

var testTS = time.Date(2026, 8, 2, 14, 30, 5, 0, time.UTC)

func passVerdict() *model.Verdict {
	return &model.Verdict{Pass: true, ConfigTag: "CFG-A", Detail: map[string]string{}}
}

func TestResultFolderNaming(t *testing.T) {
	root := t.TempDir()
	b := NewBuilder(root, time.UTC)

	folder, err := b.ResultFolder("EDW1020030405", true)
	if err != nil {
		t.Fatalf("ResultFolder: %v", err)
	}
	if want := filepath.Join(root, "EDW1020030405_PASS"); folder != want {
		t.Errorf("folder = %q, want %q", folder, want)
	}
	if _, err := os.Stat(folder); err != nil {
		t.Errorf("folder not created: %v", err)
	}

	// Idempotent for concurrent runs of the same serial and verdict.
	if _, err := b.ResultFolder("EDW1020030405", true); err != nil {
		t.Errorf("second ResultFolder: %v", err)
	}

	folder, err = b.ResultFolder("EDW1020030405", false)
	if err != nil {
		t.Fatalf("ResultFolder fail: %v", err)
	}
	if !strings.HasSuffix(folder, "_FAIL") {
		t.Errorf("fail folder = %q, want _FAIL suffix", folder)
	}
}

func TestPrefixShortensAndStampsInZone(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	b := NewBuilder(t.TempDir(), seoul)

	long := "EDW10200304051122334455" // 23 chars
	got := b.Prefix(long, testTS)
	// 14:30:05 UTC is 23:30:05 KST.
	want := "EDW10200304051122334_20260802_233005"
	if got != want {
		t.Errorf("Prefix = %q, want %q", got, want)
	}
}

func TestGeneratePDF(t *testing.T) {
	b := NewBuilder(t.TempDir(), time.UTC)
	meta := map[string]string{
		model.MetaModel:           "X1",
		model.MetaSoftwareVersion: "2.1",
	}

	path, err := b.Generate("EDW1020030405", passVerdict(), meta, testTS)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := "EDW1020030405_20260802_143005_PASS.pdf"; filepath.Base(path) != want {
		t.Errorf("pdf name = %q, want %q", filepath.Base(path), want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(data) == 0 || !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("output is not a PDF document")
	}
}

func TestGeneratePDFForFailVerdict(t *testing.T) {
	// Reports are produced for FAIL verdicts too, metadata absent → N/A.
	b := NewBuilder(t.TempDir(), time.UTC)
	v := &model.Verdict{
		Pass:      false,
		ConfigTag: model.UnmatchedTag,
		Detail:    map[string]string{"error": "serial number EDW9 not found in master list"},
	}
	path, err := b.Generate("EDW9", v, nil, testTS)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(path, "EDW9_FAIL") {
		t.Errorf("path = %q, want it under EDW9_FAIL", path)
	}
	if !strings.HasSuffix(path, "_FAIL.pdf") {
		t.Errorf("path = %q, want _FAIL.pdf suffix", path)
	}
}

func TestExportParsed(t *testing.T) {
	b := NewBuilder(t.TempDir(), time.UTC)
	folder, _ := b.ResultFolder("SN1", true)

	table := &model.Table{
		Columns: []string{"Section", "Parameter", "Value"},
		Rows:    [][]string{{"FLOW", "RATE_LIMIT", "120"}},
	}
	path, err := b.ExportParsed(table, folder, b.Prefix("SN1", testTS))
	if err != nil {
		t.Fatalf("ExportParsed: %v", err)
	}
	if want := "SN1_20260802_143005_parsed.csv"; filepath.Base(path) != want {
		t.Errorf("csv name = %q, want %q", filepath.Base(path), want)
	}

	data, _ := os.ReadFile(path)
	content := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
	if !strings.HasPrefix(content, "Section,Parameter,Value\n") {
		t.Errorf("csv content = %q, want header first", content)
	}
	if !strings.Contains(content, "FLOW,RATE_LIMIT,120") {
		t.Errorf("csv content = %q, missing data row", content)
	}
}

func TestExportParsedNilTable(t *testing.T) {
	b := NewBuilder(t.TempDir(), time.UTC)
	if _, err := b.ExportParsed(nil, t.TempDir(), "p"); err == nil {
		t.Fatal("expected error for nil table")
	}
}

func TestArchiveCopiesLog(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "input.csv")
	os.WriteFile(src, []byte("Pump Serial No,EDW1\n"), 0644)

	b := NewBuilder(dir, time.UTC)
	folder, _ := b.ResultFolder("EDW1", true)
	b.Archive(src, folder, b.Prefix("EDW1", testTS))

	dest := filepath.Join(folder, "EDW1_20260802_143005_log.csv")
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("archived copy missing: %v", err)
	}
	if string(data) != "Pump Serial No,EDW1\n" {
		t.Errorf("archived content = %q", data)
	}
}

func TestArchiveMissingSourceIsSwallowed(t *testing.T) {
	b := NewBuilder(t.TempDir(), time.UTC)
	folder, _ := b.ResultFolder("EDW1", true)
	// Must not panic or create anything.
	b.Archive(filepath.Join(t.TempDir(), "absent.csv"), folder, "p")
	entries, _ := os.ReadDir(folder)
	if len(entries) != 0 {
		t.Errorf("unexpected entries after failed archive: %v", entries)
	}
}
