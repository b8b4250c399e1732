package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nulifyer/gugetctl/logger"
)

const watchDebounce = 150 * time.Millisecond

// Watch reloads the provider whenever a file in its config chain is written,
// created, removed or renamed. Listeners therefore fire on the watcher's
// goroutine. Watch blocks until ctx is cancelled.
func (p *ConfigProvider) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range p.configChain() {
		if path == "" {
			continue
		}
		watched[strings.ToLower(filepath.Clean(path))] = true
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			continue
		}
		dirs[dir] = true
		if err := w.Add(dir); err != nil {
			logger.Debug("watch: cannot watch %s: %v", dir, err)
		}
	}
	logger.Debug("watch: %d director(ies) for nuget.config changes", len(dirs))

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
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
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
			p.Reload()
		}
	}
}
