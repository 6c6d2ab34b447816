package cliconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher monitors the TOML config file via fsnotify and delivers the
// reloaded contents to a callback. Only runtime-tunable settings should be
// applied from it; anything touching the instrument connection needs a restart.
type ConfigWatcher struct {
	path  string
	apply func(FileConfig)

	mu       sync.Mutex
	debounce *time.Timer
}

func NewConfigWatcher(path string, apply func(FileConfig)) *ConfigWatcher {
	return &ConfigWatcher{path: path, apply: apply}
}

// Run watches the config file's directory until ctx is cancelled. The
// directory is watched rather than the file so editors that replace the file
// by rename don't detach the watch.
func (w *ConfigWatcher) Run(ctx context.Context) {
	if w.path == "" || w.apply == nil {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config watcher: failed to create watcher: %v\n", err)
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		fmt.Fprintf(os.Stderr, "config watcher: failed to watch %s: %v\n", dir, err)
		return
	}

	// Catch edits made between the initial load and the watch starting.
	if FileExists(w.path) {
		w.reload()
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "config watcher: error: %v\n", err)
		}
	}
}

func (w *ConfigWatcher) debounceReload(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}

	w.debounce = time.AfterFunc(delay, w.reload)
}

func (w *ConfigWatcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config watcher: reload failed: %v\n", err)
		return
	}
	w.apply(fc)
}
