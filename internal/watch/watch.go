// Package watch re-runs generation whenever the config file changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events one editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// ReloadFunc is called after the watched file settles. Errors are logged
// and watching continues.
type ReloadFunc func(ctx context.Context) error

// File blocks until ctx ends, calling reload after each change to path.
// The parent directory is watched so rename-on-save editors are seen.
func File(ctx context.Context, path string, debounce time.Duration, reload ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch: adding %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config watcher error", "err", err)
		case <-timer.C:
			slog.Info("config changed, regenerating", "path", abs)
			if err := reload(ctx); err != nil {
				slog.Error("regenerate failed", "path", abs, "err", err)
			}
		}
	}
}
