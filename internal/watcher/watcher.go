// Package watcher reloads the search corpus when its source file changes on
// disk. Change bursts are coalesced behind a quiet window so an editor save
// (or a slow copy) triggers one rebuild, not a dozen.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceWindow is how long the file must stay quiet before a
// reload fires.
const DefaultDebounceWindow = 500 * time.Millisecond

// ReloadFunc is called after the corpus file settles. A returned error is
// logged and the previous corpus stays live; the watcher keeps running.
type ReloadFunc func(ctx context.Context) error

// Watcher watches one corpus file for changes.
type Watcher struct {
	path   string
	dir    string
	file   string
	reload ReloadFunc
	window time.Duration
}

// New creates a watcher for the corpus file at path. A zero window uses
// DefaultDebounceWindow.
func New(path string, reload ReloadFunc, window time.Duration) (*Watcher, error) {
	if reload == nil {
		return nil, errors.New("watcher: reload func is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve corpus path: %w", err)
	}
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Watcher{
		path:   abs,
		dir:    filepath.Dir(abs),
		file:   filepath.Base(abs),
		reload: reload,
		window: window,
	}, nil
}

// Run watches until ctx is cancelled. Cancellation is a clean stop, not an
// error.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory, not the file: editors and atomic writers replace
	// files by rename, which would silently drop a watch on the file itself.
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	slog.Info("watching corpus file",
		slog.String("path", w.path),
		slog.Duration("debounce", w.window))

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("corpus file changed", slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.window)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.window)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.doReload(ctx)

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("corpus watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether event touches the corpus file in a way that can
// change its contents. Chmod-only events are noise.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != w.file {
		return false
	}
	mask := fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	return event.Op&mask != 0
}

func (w *Watcher) doReload(ctx context.Context) {
	if _, err := os.Stat(w.path); err != nil {
		// Deleted or renamed away. Keep serving the loaded corpus and wait
		// for the file to come back.
		slog.Warn("corpus file missing, keeping current corpus",
			slog.String("path", w.path))
		return
	}

	start := time.Now()
	if err := w.reload(ctx); err != nil {
		slog.Error("corpus reload failed",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}
	slog.Info("corpus reloaded",
		slog.String("path", w.path),
		slog.Duration("duration", time.Since(start)))
}
