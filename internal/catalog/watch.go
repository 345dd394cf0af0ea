package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay coalesces the burst of write events an editor or atomic
// rename produces into a single reload.
const settleDelay = 250 * time.Millisecond

// Watch reloads the catalog whenever its backing file changes. It
// blocks until ctx is cancelled. Catalogs served from embedded data
// have nothing to watch and return immediately.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directory so atomic renames over the file are
	// still observed.
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		return fmt.Errorf("watch catalog dir: %w", err)
	}

	c.logger.Info("watching catalog file", "path", c.path)

	var settle *time.Timer
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	reloads := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(c.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if settle != nil {
				settle.Stop()
			}
			settle = time.AfterFunc(settleDelay, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})

		case <-reloads:
			if err := c.Reload(); err != nil {
				c.logger.Error("catalog reload failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("catalog watcher error", "error", err)
		}
	}
}
