package workspace

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rtsyn-dev/rtsyn/errors"
	"github.com/rtsyn-dev/rtsyn/logger"
)

// ReloadCallback is invoked after the workspace directory listing is
// rescanned following an external change.
type ReloadCallback func(entries []Entry)

// DirWatcher watches a workspace directory for externally created,
// modified, or removed *.json files and debounces rescans, so a
// workspace dropped in by hand or another process shows up in the
// directory listing without a manual rescan. Grounded on
// teranos-QNTX's am/watcher.go ConfigWatcher.
type DirWatcher struct {
	manager  *Manager
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	debounce time.Duration

	callbacksMu sync.RWMutex
	callbacks   []ReloadCallback
}

// NewDirWatcher starts watching manager's directory for workspace file
// changes.
func NewDirWatcher(manager *Manager) (*DirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create workspace directory watcher")
	}
	if err := w.Add(manager.Dir()); err != nil {
		w.Close()
		return nil, errors.Wrap(err, "watch workspace directory")
	}
	return &DirWatcher{
		manager:  manager,
		watcher:  w,
		debounce: 300 * time.Millisecond,
	}, nil
}

// OnReload registers a callback fired after a debounced rescan.
func (dw *DirWatcher) OnReload(cb ReloadCallback) {
	dw.callbacksMu.Lock()
	defer dw.callbacksMu.Unlock()
	dw.callbacks = append(dw.callbacks, cb)
}

// Start begins the watch loop in its own goroutine.
func (dw *DirWatcher) Start() {
	go dw.loop()
}

func (dw *DirWatcher) loop() {
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			dw.scheduleRescan()

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("workspace directory watcher error", "error", err)
		}
	}
}

func (dw *DirWatcher) scheduleRescan() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.timer != nil {
		dw.timer.Stop()
	}
	dw.timer = time.AfterFunc(dw.debounce, dw.rescan)
}

func (dw *DirWatcher) rescan() {
	if err := dw.manager.Scan(); err != nil {
		logger.Warnw("workspace directory rescan failed", "error", err)
		return
	}

	dw.callbacksMu.RLock()
	callbacks := make([]ReloadCallback, len(dw.callbacks))
	copy(callbacks, dw.callbacks)
	dw.callbacksMu.RUnlock()

	entries := dw.manager.Entries()
	for _, cb := range callbacks {
		cb(entries)
	}
}

// Stop closes the underlying fsnotify watcher.
func (dw *DirWatcher) Stop() error {
	return dw.watcher.Close()
}
