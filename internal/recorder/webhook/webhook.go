// Package webhook records verification results on a JSON list service over
// HTTP.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/crimson-sun/pumpverify/internal/httpclient"
	"github.com/crimson-sun/pumpverify/internal/recorder"
)

const defaultTimeout = 10 * time.Second
const defaultList = "verification_results"

func init() {
	recorder.Register("webhook", func(cfg recorder.Config) (recorder.Recorder, error) {
		return New(cfg)
	})
}

// Recorder posts entries to {endpoint}/lists/{list}/items and queries them
// back from the same path. Calls are bounded by the HTTP client timeout so a
// hung service cannot stall a pipeline run past it.
type Recorder struct {
	client *httpclient.Client
	list   string
}

// New creates a webhook recorder for the configured endpoint.
func New(cfg recorder.Config) (*Recorder, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("webhook recorder: endpoint not configured")
	}
	list := cfg.ListName
	if list == "" {
		list = defaultList
	}
	return &Recorder{
		client: httpclient.New(cfg.Endpoint, cfg.Token, httpclient.WithTimeout(defaultTimeout)),
		list:   list,
	}, nil
}

// Record appends one entry to the list.
func (r *Recorder) Record(ctx context.Context, e recorder.Entry) error {
	if err := r.client.PostJSON(ctx, r.itemsPath(), e, nil); err != nil {
		return fmt.Errorf("webhook recorder: %w", err)
	}
	return nil
}

// Results fetches recorded entries, optionally filtered by serial, sorted
// ascending by verification time.
func (r *Recorder) Results(ctx context.Context, serialFilter string) ([]recorder.Entry, error) {
	var query url.Values
	if serialFilter != "" {
		query = url.Values{"serial": {serialFilter}}
	}
	var entries []recorder.Entry
	if err := r.client.GetJSON(ctx, r.itemsPath(), query, &entries); err != nil {
		return nil, fmt.Errorf("webhook recorder: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].VerifiedAt.Before(entries[j].VerifiedAt)
	})
	return entries, nil
}

func (r *Recorder) itemsPath() string {
	return "/lists/" + url.PathEscape(r.list) + "/items"
}
