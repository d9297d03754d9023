package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// BaselineWatcher reloads the baseline file when it changes on disk. Bursts
// of events are collapsed into one reload.
type BaselineWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	onReload func(*Catalog, error)
}

// NewBaselineWatcher creates a watcher for the baseline at path. The parent
// directory is watched so that editors replacing the file are noticed.
func NewBaselineWatcher(path string, delay time.Duration, onReload func(*Catalog, error)) (*BaselineWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &BaselineWatcher{
		path:     abs,
		watcher:  watcher,
		debounce: NewDebouncer(delay),
		onReload: onReload,
	}, nil
}

// Run processes events until ctx is done, then closes the watcher
func (w *BaselineWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.debounce.Cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			LogWarn("Watcher error: %v", err)
		}
	}
}

func (w *BaselineWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	LogDebug("Baseline event %s", event.Op)
	w.debounce.Schedule(w.reload)
}

func (w *BaselineWatcher) reload() {
	cat, err := LoadBaselineFile(w.path)
	if w.onReload != nil {
		w.onReload(cat, err)
	}
}
