package controller

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of filesystem events (an editor's
// save-as-temp-then-rename, for instance) into a single CHANGE.
const DefaultDebounce = 2 * time.Second

// DefaultTickInterval is the TICK trigger's period.
const DefaultTickInterval = time.Hour

// Watcher watches the constraints file's parent directory for writes
// and debounces them into a single callback invocation, the same
// shape the teacher's reindex watcher uses for its own debounced
// filesystem events.
type Watcher struct {
	path     string
	debounce time.Duration
}

// NewWatcher returns a watcher over path using the default debounce.
func NewWatcher(path string) *Watcher {
	return &Watcher{path: path, debounce: DefaultDebounce}
}

// Run watches path's directory until ctx is cancelled, calling
// onChange (debounced) whenever path itself is written, and onTick
// every tickInterval. Either callback may be nil to disable it.
func (w *Watcher) Run(ctx context.Context, tickInterval time.Duration, onChange func(), onTick func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !(event.Op&(fsnotify.Write|fsnotify.Create) != 0) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceCh = nil
			if onChange != nil {
				onChange()
			}

		case <-ticker.C:
			if onTick != nil {
				onTick()
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Best-effort: a watcher error doesn't stop the loop; the
			// hourly tick still provides a backstop trigger.
		}
	}
}
