package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Watch calls fn with the key of every document written under dir, until
// ctx is cancelled. Temporary and backup files are ignored.
func Watch(ctx context.Context, dir string, log *logger.Logger, fn func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Debug("watching %s", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			key, ok := keyFromPath(event.Name)
			if !ok {
				continue
			}
			log.Debug("fsnotify event=%s key=%s", event.Op, key)
			fn(key)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("fsnotify error=%v", err)
		}
	}
}

func keyFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
		return "", false
	}
	return strings.TrimSuffix(name, fileExt), true
}
