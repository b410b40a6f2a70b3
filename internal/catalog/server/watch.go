package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/plantmanager/internal/logger"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the dataset whenever the backing file changes, until ctx is
// cancelled. Editors often replace files instead of writing them in place,
// so the parent directory is watched. A file that fails to parse leaves the
// previous dataset in place.
func (s *Server) Watch(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("server was not loaded from a file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)
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
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			if err := s.reload(); err != nil {
				logger.Warn("Keeping previous catalog data", "path", target, "error", err)
				continue
			}
			logger.Info("Reloaded catalog data", "path", target)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Catalog watcher error", "error", err)
		}
	}
}

func (s *Server) reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}
	ds, err := ParseDataset(raw)
	if err != nil {
		return err
	}
	s.Replace(ds)
	return nil
}
