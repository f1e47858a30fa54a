package api

import (
	"encoding/json"
	"time"

	"github.com/starford/lauf/internal/content"
	"github.com/starford/lauf/internal/models"
)

// entryRequest is the body shared by the id-addressed entry actions. Content,
// Visibility and Payload are optional for partial updates.
type entryRequest struct {
	ID         int            `json:"id"`
	Content    []content.Node `json:"content"`
	Visibility string         `json:"visibility"`
	Payload    map[string]any `json:"payload"`
}

// feedRequest is the GetEntries body: a 1-based page plus condition filters.
type feedRequest struct {
	Page int         `json:"page"`
	C    []Condition `json:"c"`
}

// feedResponse is the GetEntries payload.
type feedResponse struct {
	Entries []*models.Entry `json:"entries"`
	HasMore bool            `json:"hasMore"`
}

// deleteMediaRequest carries media references to delete; each may be a bare id
// or a full URL (only the trailing segment is used).
type deleteMediaRequest struct {
	IDs []string `json:"ids"`
}

// Condition is one feed filter. Value's shape depends on Field and Operator:
// date/eq takes a single date, date/in an inclusive [left, right] pair, tag a
// single string, place an array that must be a prefix of payload.location.
type Condition struct {
	Field    string          `json:"field"`
	Operator string          `json:"operator"`
	Value    json.RawMessage `json:"value"`
}

// Match reports whether the entry satisfies the condition. Unknown fields and
// operators match nothing.
func (c Condition) Match(e *models.Entry) bool {
	switch c.Field {
	case "date":
		return c.matchDate(e.CreatedAt)
	case "tag":
		var tag string
		if err := json.Unmarshal(c.Value, &tag); err != nil {
			return false
		}
		tags, ok := e.Payload["tags"].([]any)
		if !ok {
			return false
		}
		for _, t := range tags {
			if s, ok := t.(string); ok && s == tag {
				return true
			}
		}
		return false
	case "place":
		var want []string
		if err := json.Unmarshal(c.Value, &want); err != nil {
			return false
		}
		loc, ok := e.Payload["location"].([]any)
		if !ok || len(loc) < len(want) {
			return false
		}
		for i, w := range want {
			if s, ok := loc[i].(string); !ok || s != w {
				return false
			}
		}
		return true
	}
	return false
}

func (c Condition) matchDate(created time.Time) bool {
	switch c.Operator {
	case "eq":
		var raw string
		if err := json.Unmarshal(c.Value, &raw); err != nil {
			return false
		}
		day, ok := parseDate(raw)
		if !ok {
			return false
		}
		y1, m1, d1 := created.UTC().Date()
		y2, m2, d2 := day.UTC().Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case "in":
		var raw [2]string
		if err := json.Unmarshal(c.Value, &raw); err != nil {
			return false
		}
		left, okL := parseDate(raw[0])
		right, okR := parseDate(raw[1])
		if !okL || !okR {
			return false
		}
		return !created.Before(left) && !created.After(right)
	}
	return false
}

// parseDate accepts calendar dates and full timestamps.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
