package config

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handle holds the current immutable RoutingConfig snapshot. Readers take a
// snapshot per operation; reloads swap the pointer atomically so in-flight
// requests never observe a torn config.
type Handle struct {
	ptr atomic.Pointer[RoutingConfig]
}

// NewHandle creates a handle holding the given snapshot.
func NewHandle(cfg *RoutingConfig) *Handle {
	h := &Handle{}
	h.ptr.Store(cfg)
	return h
}

// Snapshot returns the current configuration. The returned value must be
// treated as read-only.
func (h *Handle) Snapshot() *RoutingConfig {
	return h.ptr.Load()
}

// Swap replaces the current snapshot.
func (h *Handle) Swap(cfg *RoutingConfig) {
	h.ptr.Store(cfg)
}

// Watcher reloads a configuration file on change and swaps the handle only
// when the new file loads and validates cleanly. A broken edit keeps the
// last good snapshot in place.
type Watcher struct {
	path   string
	handle *Handle
	log    *zap.Logger
	fsw    *fsnotify.Watcher
	done   chan struct{}
}

// WatchFile starts watching path for changes. Close must be called to stop.
func WatchFile(path string, handle *Handle, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors replace files, which drops a watch on
	// the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		path:   path,
		handle: handle,
		log:    log,
		fsw:    fsw,
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.log.Warn("Config reload rejected, keeping previous snapshot",
					zap.String("path", w.path),
					zap.Error(err))
				continue
			}
			w.handle.Swap(cfg)
			w.log.Info("Config reloaded",
				zap.String("path", w.path),
				zap.Int("backends", len(cfg.Backends)),
				zap.Strings("warnings", cfg.Warnings))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Config watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
