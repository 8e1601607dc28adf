// Package recorder sends verification results to an external list service.
// Recording is strictly best-effort: the pipeline logs and discards every
// recorder error, so implementations are free to fail loudly.
package recorder

import (
	"context"
	"fmt"
	"time"
)

// Entry is one verification result as recorded on the external list.
type Entry struct {
	Title        string    `json:"title"` // "{serial} - {PASS|FAIL}"
	SerialNumber string    `json:"serial_number"`
	ConfigTag    string    `json:"config_tag"`
	Result       string    `json:"result"` // "PASS" or "FAIL"
	ResultFolder string    `json:"result_folder"`
	VerifiedAt   time.Time `json:"verified_at"`
}

// Recorder is an external destination for verification results.
type Recorder interface {
	// Record appends one entry. Implementations bound the call with their
	// own timeouts; errors never abort a pipeline run.
	Record(ctx context.Context, e Entry) error

	// Results returns recorded entries sorted ascending by VerifiedAt,
	// optionally filtered to one serial number.
	Results(ctx context.Context, serialFilter string) ([]Entry, error)
}

// Config holds recorder connection settings.
type Config struct {
	Endpoint string // base URL of the list service
	Token    string // optional bearer token
	ListName string // target list on the service
}

// Constructor creates a Recorder from a Config.
type Constructor func(Config) (Recorder, error)

var registry = map[string]Constructor{}

// Register adds a recorder constructor under the given provider name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the recorder constructor for the given provider name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown recorder provider: %s", name)
	}
	return ctor, nil
}

// Providers returns the names of all registered recorder providers.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
