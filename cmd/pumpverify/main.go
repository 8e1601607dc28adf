package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/pumpverify/internal/config"
	"github.com/crimson-sun/pumpverify/internal/logging"
	"github.com/crimson-sun/pumpverify/internal/pipeline"
	"github.com/crimson-sun/pumpverify/internal/recorder"
	"github.com/crimson-sun/pumpverify/internal/report"
	"github.com/crimson-sun/pumpverify/internal/verifier"
	"github.com/crimson-sun/pumpverify/internal/watcher"

	// Register recorder implementations.
	_ "github.com/crimson-sun/pumpverify/internal/recorder/webhook"
)

var flags struct {
	configPath string
	masterList string
	outputDir  string
	watchDir   string
	endpoint   string
	listName   string
	logLevel   string
	logJSON    bool
}

func main() {
	root := &cobra.Command{
		Use:           "pumpverify",
		Short:         "Verify pump configuration logs against the master list",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to YAML config file")
	pf.StringVar(&flags.masterList, "master-list", "", "path to the master configuration list (.xlsx or .csv)")
	pf.StringVar(&flags.outputDir, "output-dir", "", "directory for result folders")
	pf.StringVar(&flags.watchDir, "watch-dir", "", "folder monitored by the watch command")
	pf.StringVar(&flags.endpoint, "endpoint", "", "recorder endpoint URL (empty disables recording)")
	pf.StringVar(&flags.listName, "list", "", "remote list name for recorded results")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.logJSON, "log-json", false, "emit JSON logs")

	root.AddCommand(newProcessCmd(), newWatchCmd(), newResultsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pumpverify: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and initializes logging from it.
// Precedence, lowest to highest: defaults, YAML file, environment, flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if flags.configPath != "" {
		var err error
		cfg, err = config.LoadFile(flags.configPath)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.Load()
	}

	override(&cfg.MasterListPath, flags.masterList)
	override(&cfg.OutputFolder, flags.outputDir)
	override(&cfg.WatchFolder, flags.watchDir)
	override(&cfg.Recorder.Endpoint, flags.endpoint)
	override(&cfg.Recorder.ListName, flags.listName)
	override(&cfg.Log.Level, flags.logLevel)
	if cmd.Root().PersistentFlags().Changed("log-json") {
		cfg.Log.JSON = flags.logJSON
	}

	logging.Init(cfg.Log.JSON, logging.ParseLevel(cfg.Log.Level))
	return cfg, nil
}

func override(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func buildRecorder(cfg config.Config) (recorder.Recorder, error) {
	if cfg.Recorder.Endpoint == "" {
		return nil, nil
	}
	ctor, err := recorder.Get(cfg.Recorder.Provider)
	if err != nil {
		return nil, err
	}
	return ctor(recorder.Config{
		Endpoint: cfg.Recorder.Endpoint,
		Token:    cfg.Recorder.Token,
		ListName: cfg.Recorder.ListName,
	})
}

func buildPipeline(cfg config.Config) (*pipeline.Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	rec, err := buildRecorder(cfg)
	if err != nil {
		return nil, err
	}
	v := verifier.New(cfg.MasterListPath)
	rep := report.NewBuilder(cfg.OutputFolder, loc)
	return pipeline.New(v, rep, rec), nil
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <log-file> [log-file...]",
		Short: "Run the verification pipeline on one or more log files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range args {
				ok, msg := p.Process(cmd.Context(), path)
				fmt.Printf("%s: %s\n", path, msg)
				if !ok {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the incoming folder and process new log files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Normalize(); err != nil {
				return err
			}
			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := watcher.New(cfg.WatchFolder, func(ctx context.Context, path string) {
				ok, msg := p.Process(ctx, path)
				if ok {
					slog.Info("file processed", "file", path, "message", msg)
				} else {
					slog.Error("file processing failed", "file", path, "message", msg)
				}
			})
			if err := w.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "shutting down...")
			w.Stop()
			return nil
		},
	}
}

func newResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results [serial]",
		Short: "List recorded verification results, oldest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rec, err := buildRecorder(cfg)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no recorder endpoint configured")
			}

			serial := ""
			if len(args) == 1 {
				serial = args[0]
			}
			entries, err := rec.Results(cmd.Context(), serial)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
					e.VerifiedAt.Format("2006-01-02 15:04:05"),
					e.SerialNumber, e.Result, e.ConfigTag, e.ResultFolder)
			}
			return nil
		},
	}
}
