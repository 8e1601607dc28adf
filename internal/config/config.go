// Package config holds all pumpverify configuration: defaults, a YAML config
// file, and environment overrides, in that precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all pumpverify configuration.
type Config struct {
	MasterListPath string `yaml:"master_list_path"`
	WatchFolder    string `yaml:"watch_folder"`
	OutputFolder   string `yaml:"output_folder"`
	Timezone       string `yaml:"timezone"` // reporting zone, IANA name

	Recorder RecorderConfig `yaml:"recorder"`
	Log      LogConfig      `yaml:"log"`
}

// RecorderConfig holds external result-list settings. An empty Endpoint
// disables recording.
type RecorderConfig struct {
	Provider string `yaml:"provider"`
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
	ListName string `yaml:"list_name"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MasterListPath: "Master_Config_List.xlsx",
		WatchFolder:    "Logs",
		OutputFolder:   "Results",
		Timezone:       "Asia/Seoul",
		Recorder: RecorderConfig{
			Provider: "webhook",
			ListName: "verification_results",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from environment variables over the defaults.
func Load() Config {
	c := Default()
	c.applyEnv()
	return c
}

// LoadFile reads a YAML config file over the defaults, then applies
// environment overrides on top.
func LoadFile(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	setenv(&c.MasterListPath, "PUMPVERIFY_MASTER_LIST")
	setenv(&c.WatchFolder, "PUMPVERIFY_WATCH_FOLDER")
	setenv(&c.OutputFolder, "PUMPVERIFY_OUTPUT_FOLDER")
	setenv(&c.Timezone, "PUMPVERIFY_TIMEZONE")
	setenv(&c.Recorder.Provider, "PUMPVERIFY_SYNC_PROVIDER")
	setenv(&c.Recorder.Endpoint, "PUMPVERIFY_SYNC_ENDPOINT")
	setenv(&c.Recorder.Token, "PUMPVERIFY_SYNC_TOKEN")
	setenv(&c.Recorder.ListName, "PUMPVERIFY_SYNC_LIST")
	setenv(&c.Log.Level, "PUMPVERIFY_LOG_LEVEL")
	if v := os.Getenv("PUMPVERIFY_LOG_JSON"); v == "1" || v == "true" {
		c.Log.JSON = true
	}
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Normalize resolves all paths to absolute and creates the watch and output
// folders when absent. The master list path is resolved but not required to
// exist here — the verifier reports a missing list at load time.
func (c *Config) Normalize() error {
	for _, p := range []*string{&c.MasterListPath, &c.WatchFolder, &c.OutputFolder} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", *p, err)
		}
		*p = abs
	}
	for _, dir := range []string{c.WatchFolder, c.OutputFolder} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return nil
}

// Location resolves the reporting time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
