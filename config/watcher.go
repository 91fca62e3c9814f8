package config

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileWatcher polls a set of files and invokes callbacks when their
// modification time changes. It backs credential file reloading and can
// watch the config file itself.
type FileWatcher struct {
	mu sync.Mutex

	paths    []string
	interval time.Duration

	running   bool
	cancel    context.CancelFunc
	callbacks []func(path string)

	lastModTimes map[string]time.Time
	logger       *zap.Logger
}

// NewFileWatcher watches paths at the given poll interval.
func NewFileWatcher(paths []string, interval time.Duration, logger *zap.Logger) *FileWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &FileWatcher{
		paths:        paths,
		interval:     interval,
		lastModTimes: make(map[string]time.Time),
		logger:       logger.Named("file-watcher"),
	}
}

// OnChange registers a callback invoked with the changed path. Register
// callbacks before Start.
func (w *FileWatcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Start begins polling. Stop or ctx cancellation ends it.
func (w *FileWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.snapshot()
	go w.loop(ctx)
}

// Stop ends polling.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	w.cancel()
}

func (w *FileWatcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

// snapshot records current mtimes so Start does not fire spurious events.
func (w *FileWatcher) snapshot() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.paths {
		if info, err := os.Stat(p); err == nil {
			w.lastModTimes[p] = info.ModTime()
		}
	}
}

func (w *FileWatcher) poll() {
	w.mu.Lock()
	paths := append([]string(nil), w.paths...)
	callbacks := append([]func(string){}, w.callbacks...)
	w.mu.Unlock()

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		w.mu.Lock()
		last, seen := w.lastModTimes[p]
		changed := !seen || info.ModTime().After(last)
		if changed {
			w.lastModTimes[p] = info.ModTime()
		}
		w.mu.Unlock()

		if changed && seen {
			w.logger.Info("watched file changed", zap.String("path", p))
			for _, fn := range callbacks {
				fn(p)
			}
		}
	}
}
