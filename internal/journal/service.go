// Package journal coordinates the entry editing lifecycle: draft creation,
// promote-draft-to-entry, update-in-place, and discard. It composes the entry
// store, the search index, and the media store, and owns the ordering contract:
// validate first, persist second, delete media last.
package journal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lauf/internal/apperr"
	"github.com/starford/lauf/internal/content"
	"github.com/starford/lauf/internal/entrystore"
	"github.com/starford/lauf/internal/media"
	"github.com/starford/lauf/internal/models"
)

// MediaDeleter removes uploaded files. Deletion of an already-absent file must
// not be an error.
type MediaDeleter interface {
	Delete(id string) error
}

// Indexer keeps the search index in step with the store.
type Indexer interface {
	UpsertEntry(e *models.Entry) error
	DeleteEntry(id int) error
}

// EventSink receives entry change notifications. May be nil.
type EventSink interface {
	PublishEntryEvent(kind string, id int)
}

// Service is the lifecycle coordinator.
type Service struct {
	store  *entrystore.Store
	idx    Indexer
	media  MediaDeleter
	events EventSink
	logger *slog.Logger
}

// NewService wires a coordinator. idx and media are required; events may be nil.
func NewService(store *entrystore.Store, idx Indexer, md MediaDeleter, events EventSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, idx: idx, media: md, events: events, logger: logger}
}

// SaveRequest carries the serialized surface and entry metadata at save time.
type SaveRequest struct {
	Content    []content.Node
	Visibility models.Visibility
	Payload    map[string]any
}

// Validate checks the request shape. It runs before any media diff or
// persistence step; a failure here means nothing was touched.
func (r SaveRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Visibility, validation.In(
			models.VisibilityDraft, models.VisibilityPublic, models.VisibilityPrivate,
		)),
	); err != nil {
		return err
	}
	return content.ValidateAll(r.Content)
}

// Result reports a completed save: the persisted entry and the media ids whose
// deletion was requested.
type Result struct {
	Entry   *models.Entry
	Deleted []string
}

// OpenForCreate returns the singleton draft, creating it when none exists.
// Calling it repeatedly without saving or discarding returns the same draft.
func (s *Service) OpenForCreate() *models.Entry {
	return s.store.GetDraft()
}

// Save persists new content for the entry with the given id. A draft is
// promoted to a published entry (visibility defaults to PUBLIC when the
// requested visibility is still DRAFT); a published entry is updated in place.
// Media ids referenced by the prior content but absent from the new content
// are deleted after the entry is persisted.
func (s *Service) Save(id int, req SaveRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrValidation, err)
	}

	prior := s.store.Get(id)
	if prior == nil {
		return nil, fmt.Errorf("journal: save entry %d: %w", id, apperr.ErrNotFound)
	}

	diff := media.Diff(prior.Content, req.Content)

	var (
		saved *models.Entry
		kind  string
		err   error
	)
	if prior.Visibility == models.VisibilityDraft {
		vis := req.Visibility
		if vis == "" || vis == models.VisibilityDraft {
			vis = models.VisibilityPublic
		}
		saved, err = s.store.CreateFromDraft(id, req.Content, vis, req.Payload)
		kind = "created"
	} else {
		saved, err = s.store.Update(id, req.Content, req.Visibility, req.Payload)
		kind = "updated"
	}
	if err != nil {
		return nil, err
	}

	var deleted []string
	if err := s.persist(saved); err != nil {
		// The on-disk snapshot may still reference the removed files, so their
		// deletion waits for a save whose flush succeeds.
		s.logger.Warn("journal: flush", slog.String("error", err.Error()))
	} else {
		deleted = s.deleteMedia(diff.Removed)
	}

	if s.events != nil {
		s.events.PublishEntryEvent(kind, saved.ID)
	}
	return &Result{Entry: saved, Deleted: deleted}, nil
}

// Discard abandons an editing session on the entry with the given id. Media
// uploaded during the session (referenced by after but not by the persisted
// content) is deleted; the entry itself is not created, mutated, or removed.
func (s *Service) Discard(id int, after []content.Node) ([]string, error) {
	prior := s.store.Get(id)
	if prior == nil {
		return nil, fmt.Errorf("journal: discard entry %d: %w", id, apperr.ErrNotFound)
	}
	diff := media.Diff(prior.Content, after)
	return s.deleteMedia(diff.NewlyReferenced), nil
}

// Delete removes an entry along with its index row and the media files its
// content referenced (uploads are single-referrer, so they have no other owner).
func (s *Service) Delete(id int) error {
	prior := s.store.Get(id)
	if prior == nil {
		return fmt.Errorf("journal: delete entry %d: %w", id, apperr.ErrNotFound)
	}

	s.store.Delete(id)
	flushErr := s.store.Flush()
	if err := s.idx.DeleteEntry(id); err != nil {
		s.logger.Warn("journal: index delete", slog.Int("id", id), slog.String("error", err.Error()))
	}

	if flushErr != nil {
		// Same contract as Save: the snapshot on disk may still hold the entry
		// and its media references, so the files stay until a flush lands.
		s.logger.Warn("journal: flush after delete", slog.String("error", flushErr.Error()))
	} else {
		s.deleteMedia(content.MediaRefs(prior.Content))
	}

	if s.events != nil {
		s.events.PublishEntryEvent("deleted", id)
	}
	return nil
}

// persist flushes the snapshot and refreshes the index row. The index upsert
// is best-effort (boot-time sync heals a miss); a flush failure is returned so
// the caller holds back media deletions until the snapshot is durable.
func (s *Service) persist(e *models.Entry) error {
	err := s.store.Flush()
	if idxErr := s.idx.UpsertEntry(e); idxErr != nil {
		s.logger.Warn("journal: index upsert", slog.Int("id", e.ID), slog.String("error", idxErr.Error()))
	}
	return err
}

// deleteMedia requests deletion of each id, logging failures without aborting.
// It returns the ids whose deletion was requested.
func (s *Service) deleteMedia(ids []string) []string {
	for _, id := range ids {
		if err := s.media.Delete(id); err != nil {
			s.logger.Warn("journal: media delete", slog.String("id", id), slog.String("error", err.Error()))
		}
	}
	return ids
}
