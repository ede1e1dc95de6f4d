// Package watch re-runs a callback when a file changes.
package watch

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	file     string
	callback func() error
	watcher  *fsnotify.Watcher
	debounce time.Duration
	errOut   io.Writer

	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new file watcher. Callback errors are written to
// errOut and do not stop the watcher.
func NewWatcher(file string, errOut io.Writer, callback func() error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Editors replace files on save, so watch the parent directory
	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		callback: callback,
		watcher:  watcher,
		debounce: DefaultDebounce,
		errOut:   errOut,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce changes the settle delay. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start runs the callback once, then again after every change to the file.
func (w *Watcher) Start() error {
	if err := w.callback(); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				eventPath, err := filepath.Abs(event.Name)
				if err == nil && eventPath == w.file {
					debounceTimer.Reset(w.debounce)
					debounceCh = debounceTimer.C
				}
			}

		case <-debounceCh:
			if err := w.callback(); err != nil {
				fmt.Fprintf(w.errOut, "Watch callback error: %v\n", err)
			}
			debounceCh = nil

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(w.errOut, "Watch error: %v\n", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops watching the file
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
