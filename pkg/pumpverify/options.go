package pumpverify

import "time"

type options struct {
	masterList  string
	outputDir   string
	watchFolder string
	timezone    string
	clock       func() time.Time

	recProvider string
	recEndpoint string
	recToken    string
	recList     string
}

// Option configures an App instance.
type Option func(*options)

// WithMasterList sets the path of the master configuration list.
// Both .xlsx and .csv files are accepted. Default: Master_Config_List.xlsx.
func WithMasterList(path string) Option {
	return func(o *options) {
		o.masterList = path
	}
}

// WithOutputDir sets the directory that result folders are created under.
// Default: Results.
func WithOutputDir(dir string) Option {
	return func(o *options) {
		o.outputDir = dir
	}
}

// WithWatchFolder sets the folder that Watch() monitors for new log files.
// Created on start if missing. Default: Logs.
func WithWatchFolder(dir string) Option {
	return func(o *options) {
		o.watchFolder = dir
	}
}

// WithTimezone sets the IANA timezone used for report timestamps and
// folder prefixes. Default: Asia/Seoul.
func WithTimezone(name string) Option {
	return func(o *options) {
		o.timezone = name
	}
}

// WithRecorder enables external result recording. provider names a
// registered recorder implementation ("webhook"), endpoint is its base
// URL, token is an optional bearer token, and list is the remote list
// the results are appended to. Recording is best-effort: a dead endpoint
// never fails a run.
func WithRecorder(provider, endpoint, token, list string) Option {
	return func(o *options) {
		o.recProvider = provider
		o.recEndpoint = endpoint
		o.recToken = token
		o.recList = list
	}
}

// WithClock overrides the timestamp source used for report folder prefixes.
// Useful for deterministic artifact names in tests. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

func defaultOptions() options {
	return options{
		masterList:  "Master_Config_List.xlsx",
		outputDir:   "Results",
		watchFolder: "Logs",
		timezone:    "Asia/Seoul",
		recProvider: "webhook",
	}
}
