package pumpverify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/pumpverify/internal/model"
	"github.com/crimson-sun/pumpverify/internal/pipeline"
	"github.com/crimson-sun/pumpverify/internal/recorder"
	"github.com/crimson-sun/pumpverify/internal/report"
	"github.com/crimson-sun/pumpverify/internal/verifier"
	"github.com/crimson-sun/pumpverify/internal/watcher"

	// Register recorder implementations.
	_ "github.com/crimson-sun/pumpverify/internal/recorder/webhook"
)

// App is a pump configuration verification pipeline.
// It parses log exports, matches serials against the master list, and
// emits a report folder per pump. Safe for concurrent use.
type App struct {
	verifier *verifier.Verifier
	pipe     *pipeline.Pipeline
	o        options
}

// New creates an App instance. The master list itself is loaded lazily on
// the first Process or Verify call and cached for the lifetime of the App.
func New(opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("pumpverify: timezone %q: %w", o.timezone, err)
	}

	v := verifier.New(o.masterList)
	rep := report.NewBuilder(o.outputDir, loc)

	var rec recorder.Recorder
	if o.recEndpoint != "" {
		ctor, err := recorder.Get(o.recProvider)
		if err != nil {
			return nil, fmt.Errorf("pumpverify: %w", err)
		}
		rec, err = ctor(recorder.Config{
			Endpoint: o.recEndpoint,
			Token:    o.recToken,
			ListName: o.recList,
		})
		if err != nil {
			return nil, fmt.Errorf("pumpverify: %w", err)
		}
	}

	var popts []pipeline.Option
	if o.clock != nil {
		popts = append(popts, pipeline.WithClock(o.clock))
	}

	return &App{
		verifier: v,
		pipe:     pipeline.New(v, rep, rec, popts...),
		o:        o,
	}, nil
}

// Process runs the full pipeline for one log file: parse, verify, report,
// export, archive, record. Failures never escape as panics; everything
// becomes a Result message.
func (a *App) Process(ctx context.Context, logPath string) Result {
	ok, msg := a.pipe.Process(ctx, logPath)
	return Result{OK: ok, Message: msg}
}

// Verify matches a serial number against the master list without touching
// any log file. When expectedTag is non-empty the matched row's config tag
// must also equal it (case-insensitive) for a Pass.
func (a *App) Verify(serialNo, expectedTag string) Verdict {
	return verdictFromInternal(a.verifier.Verify(serialNo, expectedTag))
}

// Watch monitors the configured watch folder and runs Process on every
// new log file until ctx is cancelled. Blocks for the lifetime of ctx.
func (a *App) Watch(ctx context.Context) error {
	w := watcher.New(a.o.watchFolder, func(ctx context.Context, path string) {
		res := a.Process(ctx, path)
		if res.OK {
			slog.Info("file processed", "file", path, "message", res.Message)
		} else {
			slog.Error("file processing failed", "file", path, "message", res.Message)
		}
	})
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("pumpverify: %w", err)
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

// verdictFromInternal converts the internal verdict to the public Verdict type.
func verdictFromInternal(v *model.Verdict) Verdict {
	var detail map[string]string
	if len(v.Detail) > 0 {
		detail = make(map[string]string, len(v.Detail))
		for k, val := range v.Detail {
			detail[k] = val
		}
	}
	return Verdict{
		Pass:      v.Pass,
		ConfigTag: v.ConfigTag,
		Detail:    detail,
	}
}
