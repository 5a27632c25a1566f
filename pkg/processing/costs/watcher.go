package costs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads a pricing file into a Calculator when it changes on
// disk. Rapid write bursts (editors, atomic renames) are debounced so one
// save triggers one reload.
type Watcher struct {
	watcher    *fsnotify.Watcher
	calculator *Calculator
	path       string
	debounce   time.Duration
	logger     *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a pricing file watcher feeding the calculator.
func NewWatcher(path string, calculator *Calculator, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch pricing file %q: %w", path, err)
	}

	return &Watcher{
		watcher:    fw,
		calculator: calculator,
		path:       path,
		debounce:   100 * time.Millisecond,
		logger:     logger.With("component", "costs.watcher"),
	}, nil
}

// Watch processes file events until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	w.logger.Info("pricing watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("pricing watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("pricing watcher error", "error", err)
			// Keep watching despite errors
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

// scheduleReload debounces reloads: the timer resets on every event and
// fires once the file has been quiet for the debounce interval.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	table, err := LoadTable(w.path)
	if err != nil {
		w.logger.Error("pricing reload failed, keeping previous table",
			"path", w.path,
			"error", err,
		)
		return
	}

	w.calculator.Update(table)
	w.logger.Info("pricing table reloaded", "path", w.path)
}
