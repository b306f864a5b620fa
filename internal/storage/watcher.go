package storage

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/eugenenazirov/envconform/internal/schemadef"
)

// Watcher reloads a schema file into storage whenever the file changes.
type Watcher struct {
	path     string
	store    Storage
	logger   *zap.Logger
	onReload func(err error)

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithReloadHook registers a callback invoked after every reload attempt with
// its outcome.
func WithReloadHook(fn func(err error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher creates a watcher for the schema file at path.
func NewWatcher(path string, store Storage, logger *zap.Logger, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	w := &Watcher{
		path:   absPath,
		store:  store,
		logger: logger,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Reload reads the schema file and stores it. On failure the previously
// stored definition is kept.
func (w *Watcher) Reload() error {
	def, err := schemadef.LoadFile(w.path)
	if err == nil {
		err = w.store.SetSchema(def)
	}
	if w.onReload != nil {
		w.onReload(err)
	}
	if err != nil {
		w.logger.Error("schema reload failed, keeping previous schema", zap.String("path", w.path), zap.Error(err))
		return fmt.Errorf("reload schema: %w", err)
	}
	w.logger.Info("schema reloaded", zap.String("path", w.path), zap.Int("fields", def.Len()))
	return nil
}

// Start begins watching. The parent directory is watched so editors that save
// by renaming a temporary file are picked up.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher

	go w.loop()

	w.logger.Info("watching schema file for changes", zap.String("path", w.path))
	return nil
}

// Stop ends watching and waits for the watch loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			_ = w.watcher.Close()
			<-w.done
		}
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Debug("schema file changed", zap.String("event", event.Op.String()))
				_ = w.Reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("schema watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}
