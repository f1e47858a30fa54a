package media

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// RemovedCallback is called when a stored file disappears out-of-band.
type RemovedCallback func(id string)

// Watch observes the uploads directory until ctx is cancelled. A media file
// removed outside the API leaves dangling image references in persisted
// entries, which is a bug worth surfacing, so removals are logged loudly and
// reported through cb.
func Watch(ctx context.Context, store *Store, logger *slog.Logger, cb RemovedCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(store.Root()); err != nil {
		return err
	}
	logger.Info("media watcher: started", slog.String("root", store.Root()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("media watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			id := filepath.Base(ev.Name)
			logger.Warn("media watcher: file removed out-of-band",
				slog.String("id", id))
			if cb != nil {
				cb(id)
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("media watcher: error", slog.String("error", werr.Error()))
		}
	}
}
