package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lc/stringbar/internal/log"
)

// Reloader is what the Watcher drives on each change.
type Reloader interface {
	Reload() error
}

// Watcher reloads the store whenever the configuration file changes.
type Watcher struct {
	target   Reloader
	path     string
	debounce time.Duration
}

// WatchOpt is a function option for configuring the Watcher.
type WatchOpt func(w *Watcher)

// WithDebounce collapses change events arriving within d of each other into
// a single reload, fired d after the last event. Zero, the default, reloads
// on every event.
func WithDebounce(d time.Duration) WatchOpt {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for path that reloads target.
func NewWatcher(target Reloader, path string, opts ...WatchOpt) *Watcher {
	w := &Watcher{target: target, path: filepath.Clean(path)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the file until ctx is cancelled. It returns an error only when
// the watch cannot be set up; reload failures are logged and ignored.
//
// The parent directory is watched and events are filtered by name, so
// editors that save by writing a new file and renaming it over the old one
// keep triggering reloads.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", w.path, err)
	}
	log.Info("store: watching config for changes", "path", w.path, "debounce", w.debounce.String())

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			// Only reload on write or create events. Atomic saves show up
			// as a create of the final name.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debugf("store: config file changed: %s %s", event.Op, w.path)

			if w.debounce == 0 {
				w.reload()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			w.reload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Errorf("store: watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	log.Info("store: config file has changed, reloading", "path", w.path)
	_ = w.target.Reload()
}
