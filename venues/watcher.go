package venues

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long to wait for more writes before reloading.
// Editors often emit several events per save.
const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a venue table file when it changes on disk.
type Watcher struct {
	table    *Table
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the table file at path.
func NewWatcher(table *Table, path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the parent directory: editors replace files on save,
	// which drops a watch registered on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		table:    table,
		path:     path,
		debounce: defaultDebounce,
		watcher:  fw,
		logger:   logger,
	}, nil
}

// Start watches for changes until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Debounce: restart the timer on every relevant event.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.table.Reload(w.path); err != nil {
				w.logger.Warn("Failed to reload venue table", "path", w.path, "error", err)
			} else {
				w.logger.Info("Reloaded venue table", "path", w.path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Venue table watch error", "error", err)
		}
	}
}
