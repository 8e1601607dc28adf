// Package pipeline orchestrates one verification run: parse the log, check
// the serial, match it against the master list, emit the report artifact
// set, and record the result externally.
//
// Failure policy: parse failures, a missing serial, and report/export
// failures fail the run. A verification mismatch is a business outcome — the
// run succeeds with a FAIL verdict and a full artifact set. Archival-copy
// and external-recording failures are logged and ignored.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/crimson-sun/pumpverify/internal/parser"
	"github.com/crimson-sun/pumpverify/internal/recorder"
	"github.com/crimson-sun/pumpverify/internal/report"
	"github.com/crimson-sun/pumpverify/internal/verifier"
)

// Pipeline connects the parser, verifier, report builder, and optional
// recorder. Safe for concurrent Process calls: the verifier's cached master
// list is read-only and artifact writes are timestamp-qualified per run.
type Pipeline struct {
	verifier *verifier.Verifier
	reporter *report.Builder
	recorder recorder.Recorder // nil disables external recording

	now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the timestamp source used for report folder prefixes
// and recorded verification dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline from the given components. rec may be nil when no
// external endpoint is configured.
func New(v *verifier.Verifier, rep *report.Builder, rec recorder.Recorder, opts ...Option) *Pipeline {
	p := &Pipeline{
		verifier: v,
		reporter: rep,
		recorder: rec,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the full verification pipeline for one log file. The boolean
// reports whether the pipeline itself succeeded; a FAIL verdict with
// artifacts on disk is a successful run. No failure escapes as a panic or
// error value — everything becomes a human-readable message.
func (p *Pipeline) Process(ctx context.Context, logPath string) (ok bool, msg string) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			msg = fmt.Sprintf("error processing file: %v", r)
		}
	}()

	// Parsing.
	rec, err := parser.Parse(logPath)
	if err != nil {
		slog.Error("parse failed", "file", logPath, "error", err)
		return false, fmt.Sprintf("failed to parse log file: %v", err)
	}

	// SerialCheck.
	if rec.SerialNumber == "" {
		return false, "serial number not found in log file"
	}

	// Verifying always yields a verdict; an unmatched serial is a FAIL
	// verdict, not a pipeline failure.
	verdict := p.verifier.Verify(rec.SerialNumber, "")
	ts := p.now()

	// Reporting.
	pdfPath, err := p.reporter.Generate(rec.SerialNumber, verdict, rec.Metadata, ts)
	if err != nil {
		slog.Error("report generation failed", "serial", rec.SerialNumber, "error", err)
		return false, fmt.Sprintf("failed to generate report: %v", err)
	}
	folder := filepath.Dir(pdfPath)
	prefix := p.reporter.Prefix(rec.SerialNumber, ts)

	// Exporting.
	if _, err := p.reporter.ExportParsed(rec.Config, folder, prefix); err != nil {
		slog.Error("parsed export failed", "serial", rec.SerialNumber, "error", err)
		return false, fmt.Sprintf("failed to export parsed data: %v", err)
	}

	// Archiving is best-effort; Archive logs its own failures.
	p.reporter.Archive(logPath, folder, prefix)

	// Syncing is best-effort; a dead endpoint never flips the outcome.
	if p.recorder != nil {
		entry := recorder.Entry{
			Title:        fmt.Sprintf("%s - %s", rec.SerialNumber, verdict.Result()),
			SerialNumber: rec.SerialNumber,
			ConfigTag:    verdict.ConfigTag,
			Result:       verdict.Result(),
			ResultFolder: folder,
			VerifiedAt:   ts,
		}
		if err := p.recorder.Record(ctx, entry); err != nil {
			slog.Warn("result recording failed", "serial", rec.SerialNumber, "error", err)
		}
	}

	return true, fmt.Sprintf("processing completed: %s - %s", rec.SerialNumber, verdict.Result())
}
