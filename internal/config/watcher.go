package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a settings file into a Store when it changes on disk.
// Editors that persist settings externally rewrite the file; the watcher
// turns that into a ChangeReload notification.
type Watcher struct {
	store    *Store
	path     string
	debounce time.Duration

	// onError receives reload failures; nil ignores them.
	onError func(error)
}

// NewWatcher creates a watcher that reloads path into store.
func NewWatcher(store *Store, path string, onError func(error)) *Watcher {
	return &Watcher{
		store:    store,
		path:     path,
		debounce: 100 * time.Millisecond,
		onError:  onError,
	}
}

// Run watches until the context is cancelled. The parent directory is
// watched rather than the file itself, so atomic rename-over-writes are
// seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var timer *time.Timer
	reloads := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Collapse bursts of events from a single save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})

		case <-reloads:
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.store.Replace(s)
}
