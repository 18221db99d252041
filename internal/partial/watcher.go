package partial

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher pushes filesystem change notifications into a Registry so
// partial bytes invalidate immediately instead of waiting for the next
// Bind to notice an mtime change (Fetch itself never re-stats a file). Adapted from the config
// watcher's fsnotify goroutine, retargeted at partial directories
// instead of YAML config files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	done      chan struct{}
}

// NewWatcher starts watching dir for partial file changes, invalidating
// the corresponding entry in reg whenever a watched file is written,
// created, or removed.
func NewWatcher(dir string, reg *Registry) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("partial: creating watcher: %w", err)
	}

	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("partial: watching directory %s: %w", dir, err)
	}

	w := &Watcher{
		fsWatcher: fw,
		done:      make(chan struct{}),
	}

	go w.processEvents(reg)

	slog.Info("partial watcher started", "dir", dir)
	return w, nil
}

func (w *Watcher) processEvents(reg *Registry) {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("partial file changed, invalidating cache", "path", event.Name)
			reg.Invalidate(event.Name)
			// A rebind (re-stat) picks up the new mtime on next use;
			// Invalidate alone is enough to force Fetch to re-read.
			_ = reg.bindFile(event.Name)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("partial watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher goroutine. Safe to call multiple times.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	return w.fsWatcher.Close()
}
