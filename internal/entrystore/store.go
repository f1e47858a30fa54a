// Package entrystore persists journal entries as an in-memory map snapshotted
// to a single JSON file. Durability is periodic flush plus flush on shutdown;
// there is no per-write persistence.
package entrystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/starford/lauf/internal/apperr"
	"github.com/starford/lauf/internal/content"
	"github.com/starford/lauf/internal/models"
)

// defaultCreatorID is the single implicit user.
const defaultCreatorID = 1

// snapshot is the on-disk shape. Ids are issued monotonically from NextID so
// deleting entries can never recycle an id.
type snapshot struct {
	NextID  int             `json:"nextId"`
	Entries []*models.Entry `json:"entries"`
}

// Store holds all entries in memory with a JSON snapshot on disk.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[int]*models.Entry
	nextID  int
	dirty   bool
}

// Open loads the snapshot at path, or starts empty when none exists yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		entries: make(map[int]*models.Entry),
		nextID:  1,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entrystore: read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("entrystore: parse snapshot: %w", err)
	}
	for _, e := range snap.Entries {
		s.entries[e.ID] = e
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	if snap.NextID > s.nextID {
		s.nextID = snap.NextID
	}
	return s, nil
}

// GetDraft returns the singleton draft entry, creating it when none exists.
func (s *Store) GetDraft() *models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.Visibility == models.VisibilityDraft {
			return e.Clone()
		}
	}

	now := time.Now()
	draft := &models.Entry{
		ID:         s.nextID,
		CreatorID:  defaultCreatorID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Content:    []content.Node{},
		Visibility: models.VisibilityDraft,
		Payload:    map[string]any{},
	}
	s.nextID++
	s.entries[draft.ID] = draft
	s.dirty = true
	return draft.Clone()
}

// Get returns a copy of the entry, or nil when the id is unknown.
func (s *Store) Get(id int) *models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id].Clone()
}

// ListPublished returns all non-draft entries, newest first.
func (s *Store) ListPublished() []*models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Entry
	for _, e := range s.entries {
		if e.Visibility == models.VisibilityDraft {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// All returns copies of every entry, drafts included, in no particular order.
func (s *Store) All() []*models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Clone())
	}
	return out
}

// Count returns the number of entries in the store, drafts included.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CreateFromDraft promotes the draft at id into a published entry with fresh
// timestamps, vacating the draft slot.
func (s *Store) CreateFromDraft(id int, nodes []content.Node, visibility models.Visibility, payload map[string]any) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return nil, apperr.ErrNotFound
	}
	now := time.Now()
	e := &models.Entry{
		ID:         id,
		CreatorID:  defaultCreatorID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Content:    nodes,
		Visibility: visibility,
		Payload:    payload,
	}
	if e.Content == nil {
		e.Content = []content.Node{}
	}
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}
	s.entries[id] = e
	s.dirty = true
	return e.Clone(), nil
}

// Update mutates an existing entry in place. Nil content or payload and empty
// visibility leave the current value untouched.
func (s *Store) Update(id int, nodes []content.Node, visibility models.Visibility, payload map[string]any) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	updated := existing.Clone()
	updated.UpdatedAt = time.Now()
	if nodes != nil {
		updated.Content = nodes
	}
	if visibility != "" {
		updated.Visibility = visibility
	}
	if payload != nil {
		updated.Payload = payload
	}
	s.entries[id] = updated
	s.dirty = true
	return updated.Clone(), nil
}

// Delete removes an entry, reporting whether it existed.
func (s *Store) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	s.dirty = true
	return true
}

// Flush writes the snapshot atomically: tmp file, fsync, rename. A clean
// store is a no-op so the periodic flusher stays cheap.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	snap := snapshot{NextID: s.nextID}
	for _, e := range s.entries {
		snap.Entries = append(snap.Entries, e)
	}
	sort.Slice(snap.Entries, func(i, j int) bool { return snap.Entries[i].ID < snap.Entries[j].ID })

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("entrystore: encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("entrystore: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".lauf-tmp-*")
	if err != nil {
		return fmt.Errorf("entrystore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("entrystore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("entrystore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("entrystore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("entrystore: rename: %w", err)
	}
	success = true
	s.dirty = false
	return nil
}
