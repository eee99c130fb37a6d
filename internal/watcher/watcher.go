// Package watcher provides file system watching for flag files.
// It watches the directory holding each configured file so that creating,
// removing and renaming the file are all observed, and coalesces bursts of
// events with a debounce window before invoking the callback.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDuration is the default debounce window for batching rapid changes.
const DefaultDebounceDuration = 100 * time.Millisecond

// Config holds file watcher configuration.
type Config struct {
	Paths            []string      // Files to watch; their parent directories must exist
	DebounceDuration time.Duration // Debounce window to batch rapid changes
	OnChange         func()        // Callback after a burst of changes settles
	OnError          func(error)   // Optional callback for watcher errors
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(onChange func(), paths ...string) *Config {
	return &Config{
		Paths:            paths,
		DebounceDuration: DefaultDebounceDuration,
		OnChange:         onChange,
	}
}

// Watcher monitors flag files and reports when any of them changes.
type Watcher struct {
	cfg     *Config
	fsw     *fsnotify.Watcher
	names   map[string]bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	mu      sync.Mutex
}

// New creates a new Watcher instance.
func New(cfg *Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	names := make(map[string]bool, len(cfg.Paths))
	for _, p := range cfg.Paths {
		names[filepath.Clean(p)] = true
	}

	return &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		names:  names,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Start begins watching the configured paths.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher has been stopped and cannot be restarted")
	}
	if w.started {
		return nil
	}

	dirs := make(map[string]bool)
	for p := range w.names {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", dir, err)
		}
	}

	w.started = true
	go w.eventLoop()

	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
// No callback runs after Stop returns.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	close(w.stopCh)
	_ = w.fsw.Close()
	w.mu.Unlock()

	if started {
		<-w.doneCh
	}
}

// eventLoop processes fsnotify events with debouncing.
func (w *Watcher) eventLoop() {
	defer close(w.doneCh)

	debounce := w.cfg.DebounceDuration
	if debounce <= 0 {
		debounce = DefaultDebounceDuration
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.names[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.cfg.OnError != nil {
				w.cfg.OnError(err)
			}

		case <-fire:
			fire = nil
			if w.cfg.OnChange != nil {
				w.cfg.OnChange()
			}
		}
	}
}
