package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler receives the re-validated configuration after the file changes.
type ReloadHandler func(cfg *Config)

// Watcher monitors the configuration file and reloads it on change.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

type implWatcher struct {
	path    string
	handler ReloadHandler
	watcher *fsnotify.Watcher
}

// NewWatcher creates a Watcher for the config file at path.
func NewWatcher(path string, handler ReloadHandler) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &implWatcher{
		path:    path,
		handler: handler,
		watcher: watcher,
	}, nil
}

// Start blocks until ctx is cancelled, invoking the handler whenever the
// config file is rewritten and still validates.
func (w *implWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Small delay so the file is fully written
			time.Sleep(100 * time.Millisecond)

			cfg, err := Load(w.path)
			if err != nil {
				// Keep running with the previous config
				continue
			}
			w.handler(cfg)

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
		}
	}
}

// Stop closes the underlying file watcher.
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}
