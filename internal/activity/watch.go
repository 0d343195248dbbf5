package activity

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch reloads the catalog from path whenever the file is written or
// replaced. A file that fails to parse is logged and the previous catalog kept.
// Blocks until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context, path string, logger zerolog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("activity watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory so editors that rename-over the file are seen.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			byMode, err := readFile(path)
			if err != nil {
				logger.Warn().Err(err).Msg("activity catalog reload failed, keeping previous")
				continue
			}
			c.Replace(byMode)
			logger.Info().Str("path", path).Msg("activity catalog reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("activity watcher error")
		}
	}
}
