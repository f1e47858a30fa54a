package index

import (
	"log/slog"

	"github.com/starford/lauf/internal/entrystore"
)

// Sync brings the index up to date with the entry store:
//   - every stored entry is re-upserted
//   - rows whose entry no longer exists are deleted
//
// It runs at boot so a deleted or stale database file heals itself.
func Sync(db *DB, store *entrystore.Store, logger *slog.Logger) error {
	indexed, err := db.AllIDs()
	if err != nil {
		return err
	}

	live := make(map[int]struct{})
	for _, e := range store.All() {
		live[e.ID] = struct{}{}
		if err := db.UpsertEntry(e); err != nil {
			logger.Warn("sync: upsert failed", slog.Int("id", e.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.Int("id", e.ID))
		}
	}

	// Remove stale rows.
	for id := range indexed {
		if _, ok := live[id]; !ok {
			if err := db.DeleteEntry(id); err != nil {
				logger.Warn("sync: delete failed", slog.Int("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.Int("id", id))
			}
		}
	}

	return nil
}
