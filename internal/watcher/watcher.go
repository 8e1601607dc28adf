// Package watcher discovers newly exported log files in a watch folder and
// hands each one to the pipeline exactly once.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/crimson-sun/pumpverify/internal/parser"
)

const (
	defaultQueueSize    = 64
	defaultPollInterval = 500 * time.Millisecond
	defaultStableAfter  = 2 * time.Second
)

// Handler is invoked for each discovered file, from a single consumer
// goroutine.
type Handler func(ctx context.Context, path string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithQueueSize bounds the event-to-consumer queue. Default: 64.
func WithQueueSize(n int) Option {
	return func(w *Watcher) { w.queueSize = n }
}

// WithPollInterval sets the size-stabilization poll interval. Default: 500ms.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithStableAfter sets how long a file's size must stay unchanged before it
// is considered fully written. Default: 2s.
func WithStableAfter(d time.Duration) Option {
	return func(w *Watcher) { w.stableAfter = d }
}

// Watcher observes one folder, non-recursively, reacting only to creation of
// files with accepted log extensions. A created file is handed to the
// handler after its size stabilizes, and each absolute path is submitted at
// most once for the watcher's lifetime.
type Watcher struct {
	folder  string
	handler Handler

	queueSize    int
	pollInterval time.Duration
	stableAfter  time.Duration

	mu        sync.Mutex
	submitted map[string]bool
	running   bool

	fsw    *fsnotify.Watcher
	queue  chan string
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a Watcher for folder, delivering discovered files to handler.
func New(folder string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		folder:       folder,
		handler:      handler,
		queueSize:    defaultQueueSize,
		pollInterval: defaultPollInterval,
		stableAfter:  defaultStableAfter,
		submitted:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The watch folder is created if absent. Non-blocking;
// events are processed until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.folder, 0755); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.folder); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw
	w.queue = make(chan string, w.queueSize)
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.watchLoop(ctx)
	go w.consumeLoop(ctx)

	slog.Info("watching folder", "path", w.folder)
	return nil
}

// Stop stops watching and waits for the consumer to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.fsw.Close()
	<-w.doneCh
}

// watchLoop turns creation events into queued paths.
func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.queue)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			w.observe(ctx, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", "folder", w.folder, "error", err)
		}
	}
}

// observe qualifies a created path and queues it: accepted extension, size
// stabilized, never submitted before, still a regular file.
func (w *Watcher) observe(ctx context.Context, path string) {
	if !parser.Accepts(path) {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	if !w.markSubmitted(abs) {
		return
	}

	if !w.waitStable(ctx, abs) {
		return
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return
	}

	select {
	case w.queue <- abs:
	default:
		slog.Warn("watch queue full, dropping file", "path", abs)
	}
}

// markSubmitted records the path, returning false when it was already seen.
func (w *Watcher) markSubmitted(abs string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitted[abs] {
		return false
	}
	w.submitted[abs] = true
	return true
}

// waitStable polls the file size until it stops changing for stableAfter.
// Returns false if the file vanishes or the context ends first.
func (w *Watcher) waitStable(ctx context.Context, path string) bool {
	var lastSize int64 = -1
	stableSince := time.Now()

	t := time.NewTicker(w.pollInterval)
	defer t.Stop()
	for {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() != lastSize {
			lastSize = info.Size()
			stableSince = time.Now()
		} else if time.Since(stableSince) >= w.stableAfter {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-w.stopCh:
			return false
		case <-t.C:
		}
	}
}

// consumeLoop is the single consumer invoking the handler per queued file.
func (w *Watcher) consumeLoop(ctx context.Context) {
	defer close(w.doneCh)
	for path := range w.queue {
		if ctx.Err() != nil {
			return
		}
		w.handler(ctx, path)
	}
}
