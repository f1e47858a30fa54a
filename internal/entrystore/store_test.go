package entrystore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/lauf/internal/apperr"
	"github.com/starford/lauf/internal/content"
	"github.com/starford/lauf/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "entries.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGetDraft_Singleton(t *testing.T) {
	s := testStore(t)
	a := s.GetDraft()
	b := s.GetDraft()
	if a.ID != b.ID {
		t.Errorf("draft ids differ: %d vs %d", a.ID, b.ID)
	}
	if a.Visibility != models.VisibilityDraft {
		t.Errorf("visibility = %q", a.Visibility)
	}
	if a.Content == nil || a.Payload == nil {
		t.Error("draft should start with empty content and payload, not nil")
	}
	if s.Count() != 1 {
		t.Errorf("count = %d, want 1", s.Count())
	}
}

func TestCreateFromDraft_PromotesAndVacatesSlot(t *testing.T) {
	s := testStore(t)
	draft := s.GetDraft()

	nodes := []content.Node{content.Text("day one", content.Normal)}
	e, err := s.CreateFromDraft(draft.ID, nodes, models.VisibilityPublic, map[string]any{"tags": []any{"x"}})
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != draft.ID || e.Visibility != models.VisibilityPublic {
		t.Errorf("promoted entry = %+v", e)
	}
	if !e.CreatedAt.After(draft.CreatedAt) && !e.CreatedAt.Equal(draft.CreatedAt) {
		t.Error("promotion should stamp a fresh createdAt")
	}

	// The draft slot is free again: a new draft gets a new id.
	next := s.GetDraft()
	if next.ID == draft.ID {
		t.Error("draft slot was not vacated")
	}
}

func TestCreateFromDraft_UnknownID(t *testing.T) {
	s := testStore(t)
	if _, err := s.CreateFromDraft(42, nil, models.VisibilityPublic, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	s := testStore(t)
	draft := s.GetDraft()
	e, err := s.CreateFromDraft(draft.ID, []content.Node{content.Text("v1", content.Normal)}, models.VisibilityPublic, map[string]any{"mood": "calm"})
	if err != nil {
		t.Fatal(err)
	}

	// Nil content keeps the body; empty visibility keeps the level.
	upd, err := s.Update(e.ID, nil, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(upd.Content) != 1 || upd.Visibility != models.VisibilityPublic || upd.Payload["mood"] != "calm" {
		t.Errorf("partial update clobbered fields: %+v", upd)
	}

	upd, err = s.Update(e.ID, []content.Node{content.Text("v2", content.Bold)}, models.VisibilityPrivate, nil)
	if err != nil {
		t.Fatal(err)
	}
	if upd.Content[0].Content != "v2" || upd.Visibility != models.VisibilityPrivate {
		t.Errorf("update = %+v", upd)
	}

	if _, err := s.Update(999, nil, "", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListPublished_ExcludesDraftNewestFirst(t *testing.T) {
	s := testStore(t)
	for i := 0; i < 3; i++ {
		d := s.GetDraft()
		if _, err := s.CreateFromDraft(d.ID, []content.Node{content.Text("e", content.Normal)}, models.VisibilityPublic, nil); err != nil {
			t.Fatal(err)
		}
	}
	s.GetDraft() // leave an open draft behind

	list := s.ListPublished()
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Error("list is not newest-first")
		}
	}
	for _, e := range list {
		if e.Visibility == models.VisibilityDraft {
			t.Error("draft leaked into the published list")
		}
	}
}

func TestFlush_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entries.json")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	d := s.GetDraft()
	if _, err := s.CreateFromDraft(d.ID, []content.Node{
		content.Text("persisted", content.Bold),
		content.Image("f00.png"),
	}, models.VisibilityPublic, map[string]any{"tags": []any{"travel"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	e := reopened.Get(d.ID)
	if e == nil {
		t.Fatal("entry lost across reopen")
	}
	if e.Content[0].Content != "persisted" || e.Content[0].Style != content.Bold {
		t.Errorf("content = %+v", e.Content)
	}
	if e.Content[1] != content.Image("f00.png") {
		t.Errorf("image node = %+v", e.Content[1])
	}

	// Ids stay monotonic after reopen.
	next := reopened.GetDraft()
	if next.ID <= e.ID {
		t.Errorf("next id %d not monotonic after reopen", next.ID)
	}
}

func TestFlush_CleanStoreIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("clean flush should not create a snapshot")
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	d := s.GetDraft()
	if !s.Delete(d.ID) {
		t.Error("delete of existing entry = false")
	}
	if s.Delete(d.ID) {
		t.Error("second delete = true")
	}
	if s.Get(d.ID) != nil {
		t.Error("entry still retrievable after delete")
	}
}
