package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches the bursts of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads the catalog at path whenever it changes and reports each
// result to onChange. It blocks until ctx is done. The parent directory is
// watched so atomic-rename saves are seen.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *zap.Logger, onChange func(*Catalog, error)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if cerr := watcher.Close(); cerr != nil {
			_ = cerr
		}
	}()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Debug("watching catalog", zap.String("path", abs))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("catalog event", zap.String("op", event.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher", zap.Error(err))
		case <-timer.C:
			cat, err := Load(abs)
			if err != nil {
				logger.Warn("catalog reload failed", zap.Error(err))
			} else {
				logger.Info("catalog reloaded", zap.Int("challenges", len(cat.Challenges)))
			}
			onChange(cat, err)
		}
	}
}
