package project

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nulifyer/gugetctl/logger"
)

const watchDebounce = 250 * time.Millisecond

// Watch calls onChange, on the watcher's goroutine, after any of paths is
// rewritten. Bursts of events (editors, restore tools) collapse into one
// call. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, paths []string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		watched[strings.ToLower(filepath.Clean(p))] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := w.Add(dir); err != nil {
			logger.Debug("watch: cannot watch %s: %v", dir, err)
		}
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[strings.ToLower(filepath.Clean(ev.Name))] {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				logger.Trace("watch: %s %s", ev.Op, ev.Name)
				fire = time.After(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		case <-fire:
			fire = nil
			onChange()
		}
	}
}
