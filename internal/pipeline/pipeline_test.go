package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/pumpverify/internal/recorder"
	"github.com/crimson-sun/pumpverify/internal/report"
	"github.com/crimson-sun/pumpverify/internal/verifier"
)

var fixedTS = time.Date(2026, 8, 2, 14, 30, 5, 0, time.UTC)

// fakeRecorder captures Record calls and optionally fails them.
type fakeRecorder struct {
	entries []recorder.Entry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, e recorder.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeRecorder) Results(context.Context, string) ([]recorder.Entry, error) {
	return f.entries, nil
}

func writeMaster(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "master.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestPipeline(t *testing.T, masterLines []string, rec recorder.Recorder) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	master := writeMaster(t, dir, masterLines...)
	out := filepath.Join(dir, "results")

	p := New(verifier.New(master), report.NewBuilder(out, time.UTC), rec,
		WithClock(func() time.Time { return fixedTS }))
	return p, out
}

const passLog = "Pump Serial No,Model,Software Version\nEDW1020030405,X1,2.1\n"

func TestProcessPass(t *testing.T) {
	p, out := newTestPipeline(t, []string{
		"Pump_Serial_No,Target_Config_Tag",
		"1020030405,CFG-A",
	}, nil)
	logPath := writeLog(t, t.TempDir(), "log.csv", passLog)

	ok, msg := p.Process(context.Background(), logPath)
	if !ok {
		t.Fatalf("Process failed: %s", msg)
	}
	if want := "processing completed: EDW1020030405 - PASS"; msg != want {
		t.Errorf("msg = %q, want %q", msg, want)
	}

	folder := filepath.Join(out, "EDW1020030405_PASS")
	for _, name := range []string{
		"EDW1020030405_20260802_143005_PASS.pdf",
		"EDW1020030405_20260802_143005_parsed.csv",
		"EDW1020030405_20260802_143005_log.csv",
	} {
		if _, err := os.Stat(filepath.Join(folder, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestProcessUnmatchedSerialStillReports(t *testing.T) {
	p, out := newTestPipeline(t, []string{
		"Pump_Serial_No,Target_Config_Tag",
		"999999,CFG-Z",
	}, nil)
	logPath := writeLog(t, t.TempDir(), "log.csv", passLog)

	ok, msg := p.Process(context.Background(), logPath)
	if !ok {
		t.Fatalf("Process failed: %s", msg)
	}
	if !strings.Contains(msg, "EDW1020030405 - FAIL") {
		t.Errorf("msg = %q, want FAIL summary", msg)
	}

	folder := filepath.Join(out, "EDW1020030405_FAIL")
	entries, err := os.ReadDir(folder)
	if err != nil || len(entries) == 0 {
		t.Fatalf("FAIL artifacts missing under %s: %v", folder, err)
	}
}

func TestProcessParseFailure(t *testing.T) {
	p, _ := newTestPipeline(t, []string{
		"Pump_Serial_No,Target_Config_Tag",
		"1,CFG-A",
	}, nil)
	logPath := writeLog(t, t.TempDir(), "garbage.csv", string([]byte{0x00, 0xff, 0x1f}))

	ok, msg := p.Process(context.Background(), logPath)
	if ok {
		t.Fatal("Process succeeded on garbage input")
	}
	if !strings.Contains(msg, "parse") {
		t.Errorf("msg = %q, want it to mention parse", msg)
	}
}

func TestProcessMissingSerial(t *testing.T) {
	p, _ := newTestPipeline(t, []string{
		"Pump_Serial_No,Target_Config_Tag",
		"1,CFG-A",
	}, nil)
	logPath := writeLog(t, t.TempDir(), "log.csv",
		"Model,X1\n\nSection,Parameter,Value\nFLOW,RATE,1\n")

	ok, msg := p.Process(context.Background(), logPath)
	if ok {
		t.Fatal("Process succeeded without a serial")
	}
	if !strings.Contains(msg, "serial number not found") {
		t.Errorf("msg = %q, want missing-serial message", msg)
	}
}

func TestProcessRecordsResult(t *testing.T) {
	rec := &fakeRecorder{}
	p, _ := newTestPipeline(t, []string{
		"Pump_Serial_No,Target_Config_Tag",
		"1020030405,CFG-A",
	}, rec)
	logPath := writeLog(t, t.TempDir(), "log.csv", passLog)

	if ok, msg := p.Process(context.Background(), logPath); !ok {
		t.Fatalf("Process failed: %s", msg)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(rec.entries))
	}
	e := rec.entries[0]
	if e.SerialNumber != "EDW1020030405" || e.Result != "PASS" || e.ConfigTag != "CFG-A" {
		t.Errorf("entry = %+v", e)
	}
	if e.Title != "EDW1020030405 - PASS" {
		t.Errorf("title = %q", e.Title)
	}
	if !strings.HasSuffix(e.ResultFolder, "EDW1020030405_PASS") {
		t.Errorf("result folder = %q", e.ResultFolder)
	}
	if !e.VerifiedAt.Equal(fixedTS) {
		t.Errorf("verified at = %v, want %v", e.VerifiedAt, fixedTS)
	}
}

func TestProcessRecorderFailureDoesNotFailRun(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("endpoint unreachable")}
	p, out := newTestPipeline(t, []string{
		"Pump_Serial_No,Target_Config_Tag",
		"1020030405,CFG-A",
	}, rec)
	logPath := writeLog(t, t.TempDir(), "log.csv", passLog)

	ok, msg := p.Process(context.Background(), logPath)
	if !ok {
		t.Fatalf("Process failed on recorder error: %s", msg)
	}
	if _, err := os.Stat(filepath.Join(out, "EDW1020030405_PASS")); err != nil {
		t.Errorf("artifacts missing despite successful run: %v", err)
	}
}

func TestProcessExportFailureFailsRun(t *testing.T) {
	// A log with metadata but no configuration table cannot be exported.
	p, _ := newTestPipeline(t, []string{
		"Pump_Serial_No,Target_Config_Tag",
		"7788,CFG-A",
	}, nil)
	logPath := writeLog(t, t.TempDir(), "log.csv", "[SYSTEM_INFO]\nSerial No: SN7788\n")

	ok, msg := p.Process(context.Background(), logPath)
	if ok {
		t.Fatal("Process succeeded without an exportable table")
	}
	if !strings.Contains(msg, "export") {
		t.Errorf("msg = %q, want export failure", msg)
	}
}

func TestProcessRoundTripParsedExport(t *testing.T) {
	// The parsed export re-parses as a flat table with identical shape.
	p, out := newTestPipeline(t, []string{
		"Pump_Serial_No,Target_Config_Tag",
		"1020030405,CFG-A",
	}, nil)
	logPath := writeLog(t, t.TempDir(), "log.csv", passLog)

	if ok, msg := p.Process(context.Background(), logPath); !ok {
		t.Fatalf("Process failed: %s", msg)
	}

	exported := filepath.Join(out, "EDW1020030405_PASS", "EDW1020030405_20260802_143005_parsed.csv")
	ok, msg := p.Process(context.Background(), exported)
	if !ok {
		t.Fatalf("re-parse of export failed: %s", msg)
	}
	if !strings.Contains(msg, "EDW1020030405 - PASS") {
		t.Errorf("round-trip msg = %q", msg)
	}
}
