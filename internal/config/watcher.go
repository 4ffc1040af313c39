package config

import (
	"crypto/sha256"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the settings file on disk for out-of-band edits (e.g. a
// human editing cantari.json directly instead of going through PUT
// /settings) and pushes the reloaded document into a [Registry].
//
// This only exists for the on-disk file; changes made through PUT
// /settings go through [Registry.Replace] directly and don't need polling.
type Watcher struct {
	path     string
	interval time.Duration
	registry *Registry

	done     chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher starts polling path for changes, pushing any reloaded
// document into registry via [Registry.Replace]. It does not perform an
// initial load — registry already owns the current document from
// [NewRegistry].
func NewWatcher(path string, registry *Registry, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		registry: registry,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if info, err := os.Stat(path); err == nil {
		w.lastMtime = info.ModTime()
	}
	go w.poll()
	return w
}

// Stop stops the background poll goroutine.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watcher) check() {
	info, err := os.Stat(w.path)
	if err != nil {
		return // missing file: nothing to reload from
	}

	w.mu.Lock()
	mtime := w.lastMtime
	w.mu.Unlock()
	if info.ModTime().Equal(mtime) {
		return
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.Warn("config watcher: failed to read settings file", "path", w.path, "err", err)
		return
	}
	hash := sha256.Sum256(data)

	w.mu.Lock()
	if hash == w.lastHash {
		w.lastMtime = info.ModTime()
		w.mu.Unlock()
		return
	}
	w.lastHash = hash
	w.lastMtime = info.ModTime()
	w.mu.Unlock()

	next, err := Load(w.path)
	if err != nil {
		slog.Warn("config watcher: failed to parse settings file", "path", w.path, "err", err)
		return
	}
	if err := w.registry.Replace(next); err != nil {
		slog.Warn("config watcher: rejected reloaded settings", "path", w.path, "err", err)
		return
	}
	slog.Info("config watcher: settings reloaded from disk", "path", w.path)
}
