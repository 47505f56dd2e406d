package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/romdo/go-debounce"
)

// Watch blocks, running p whenever a CSV file in dir is created or written.
// Events within settle of each other trigger a single run. dir is created
// when missing.
func (p *Pipeline) Watch(ctx context.Context, dir string, settle time.Duration) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	slog.Info("raw directory watch started", "dir", dir, "settle", settle.String())

	// Runs happen on this goroutine; the debouncer only signals.
	fire := make(chan struct{}, 1)
	trigger, cancel := debounce.New(settle, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			slog.Info("raw directory watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRawChange(event) {
				continue
			}
			slog.Debug("raw file changed", "file", event.Name, "op", event.Op.String())
			trigger()

		case <-fire:
			p.scheduledRun(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("raw directory watch error", "error", err)
		}
	}
}

func isRawChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".csv")
}
