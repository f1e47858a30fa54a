// Package models defines the domain types for Lauf.
package models

import (
	"time"

	"github.com/starford/lauf/internal/content"
)

// Visibility controls whether an entry appears in the public feed.
type Visibility string

// Visibility levels. Exactly one DRAFT entry exists per creator at a time.
const (
	VisibilityDraft   Visibility = "DRAFT"
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// Valid reports whether v is a known visibility level.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityDraft, VisibilityPublic, VisibilityPrivate:
		return true
	}
	return false
}

// Entry is a single journal entry. Content is the ordered node sequence of
// the rich-text body; Payload is an opaque bag for feed filters (tags,
// location, mood).
type Entry struct {
	ID         int            `json:"id"`
	CreatorID  int            `json:"creatorId"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  *time.Time     `json:"deletedAt"`
	Content    []content.Node `json:"content"`
	Visibility Visibility     `json:"visibility"`
	Payload    map[string]any `json:"payload"`
}

// Clone returns a deep copy so callers can mutate freely without racing the
// store's in-memory state.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := *e
	out.Content = append([]content.Node(nil), e.Content...)
	if e.Payload != nil {
		out.Payload = make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			out.Payload[k] = v
		}
	}
	if e.DeletedAt != nil {
		ts := *e.DeletedAt
		out.DeletedAt = &ts
	}
	return &out
}
