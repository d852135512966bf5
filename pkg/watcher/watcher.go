package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DirWatcher reports model files that appear in a directory
type DirWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	ext      string
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   chan struct{}
}

// NewDirWatcher creates a watcher for files with the extension ext (e.g. ".ifc").
// Events for one file are coalesced until it was quiet for debounce.
func NewDirWatcher(ext string, debounce time.Duration, logger *zap.Logger) (*DirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DirWatcher{
		watcher:  watcher,
		logger:   logger.Named("watcher"),
		ext:      strings.ToLower(ext),
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Watch starts watching dir; callback receives the path of every new or rewritten model file
func (dw *DirWatcher) Watch(dir string, callback func(path string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}
	if err := dw.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", absPath, err)
	}
	dw.logger.Info("watching directory", zap.String("dir", absPath), zap.String("ext", dw.ext))

	go dw.loop(callback)
	return nil
}

func (dw *DirWatcher) loop(callback func(string)) {
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.ToLower(filepath.Ext(event.Name)) != dw.ext {
				continue
			}
			dw.schedule(event.Name, callback)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Warn("watcher error", zap.Error(err))

		case <-dw.done:
			return
		}
	}
}

// schedule debounces events so a file being copied is reported once it is complete
func (dw *DirWatcher) schedule(path string, callback func(string)) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if timer, exists := dw.timers[path]; exists {
		timer.Stop()
	}
	dw.timers[path] = time.AfterFunc(dw.debounce, func() {
		dw.mu.Lock()
		delete(dw.timers, path)
		dw.mu.Unlock()

		dw.logger.Debug("model file changed", zap.String("path", path))
		callback(path)
	})
}

// Close stops the watcher and pending notifications
func (dw *DirWatcher) Close() error {
	dw.mu.Lock()
	for path, timer := range dw.timers {
		timer.Stop()
		delete(dw.timers, path)
	}
	dw.mu.Unlock()

	close(dw.done)
	return dw.watcher.Close()
}
