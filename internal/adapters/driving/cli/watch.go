package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/reqdistill/internal/logger"
)

// watchDebounce coalesces the burst of events a single save produces.
const watchDebounce = 500 * time.Millisecond

// watchFile calls onChange after path is written, until ctx is cancelled.
// The parent directory is watched so editors that save by renaming a
// temporary file over the original are still seen.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func(context.Context) error) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDocumentChange(event, target) {
				continue
			}
			logger.Debug("watch: %s", event)
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case <-fire:
			if err := onChange(ctx); err != nil {
				logger.Error("%v", err)
			}
		}
	}
}

// isDocumentChange reports whether event rewrote the watched file.
// Removal is ignored: an editor's rename-over save is followed by a Create.
func isDocumentChange(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
