package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/lauf/internal/entrystore"
	"github.com/starford/lauf/internal/journal"
	"github.com/starford/lauf/internal/media"
	"github.com/starford/lauf/internal/models"
	"github.com/starford/lauf/internal/testutil"
)

type testEnv struct {
	router http.Handler
	store  *entrystore.Store
	media  *media.Store
}

// newTestEnv sets up a temp entry store, SQLite index, media dir, journal
// service, and router. authToken == "" means auth disabled.
func newTestEnv(t *testing.T, authToken string) *testEnv {
	t.Helper()

	store := testutil.TestEntryStore(t)
	db := testutil.TestDB(t)
	ms := testutil.TestMediaStore(t)

	svc := journal.NewService(store, db, ms, nil, nil)
	h := NewHandler(svc, store, db, nil)
	mh := NewMediaHandler(ms, nil)
	router := NewRouter(h, mh, authToken != "", authToken, nil, nil)
	return &testEnv{router: router, store: store, media: ms}
}

func (env *testEnv) post(t *testing.T, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(http.MethodPost, target, rd)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// message unmarshals the {"message": ...} envelope payload into v.
func message(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var envl struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envl); err != nil {
		t.Fatalf("envelope: %v (body %s)", err, w.Body.String())
	}
	if err := json.Unmarshal(envl.Message, v); err != nil {
		t.Fatalf("message: %v (body %s)", err, w.Body.String())
	}
}

// publish promotes the current draft with the given body and returns the entry.
func (env *testEnv) publish(t *testing.T, text string, payload map[string]any) models.Entry {
	t.Helper()
	var draft models.Entry
	message(t, env.post(t, "/api/entry?Action=GetDraft", nil), &draft)

	w := env.post(t, "/api/entry?Action=CreateEntryFromDraft", map[string]any{
		"id":      draft.ID,
		"content": []map[string]any{{"type": "text", "content": text}},
		"payload": payload,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("publish status = %d, body = %s", w.Code, w.Body.String())
	}
	var e models.Entry
	message(t, w, &e)
	return e
}

// uploadPhoto pushes one image through /api/upload and returns its media id.
func (env *testEnv) uploadPhoto(t *testing.T, filename string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photos", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("not-really-a-png"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Photos []string `json:"photos"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Photos) != 1 {
		t.Fatalf("photos = %v, want one", resp.Photos)
	}
	return media.TrailingID(resp.Photos[0])
}

func TestGetDraft_Singleton(t *testing.T) {
	env := newTestEnv(t, "")

	var a, b models.Entry
	message(t, env.post(t, "/api/entry?Action=GetDraft", nil), &a)
	message(t, env.post(t, "/api/entry?Action=GetDraft", nil), &b)

	if a.ID != b.ID {
		t.Errorf("draft ids differ: %d vs %d", a.ID, b.ID)
	}
	if a.Visibility != models.VisibilityDraft {
		t.Errorf("visibility = %q, want DRAFT", a.Visibility)
	}
}

func TestCreateEntryFromDraft(t *testing.T) {
	env := newTestEnv(t, "")
	e := env.publish(t, "my first entry", nil)

	if e.Visibility != models.VisibilityPublic {
		t.Errorf("visibility = %q, want PUBLIC (draft default)", e.Visibility)
	}

	w := env.post(t, "/api/entry?Action=GetEntry", map[string]any{"id": e.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.Entry
	message(t, w, &got)
	if got.ID != e.ID || len(got.Content) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.post(t, "/api/entry?Action=GetEntry", map[string]any{"id": 404})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var msg string
	message(t, w, &msg)
	if msg != "Entry not found" {
		t.Errorf("message = %q", msg)
	}
}

func TestUnknownAction(t *testing.T) {
	env := newTestEnv(t, "")
	for _, target := range []string{"/api/entry?Action=Nope", "/api/meta?Action=Nope", "/api/media?Action=Nope"} {
		w := env.post(t, target, map[string]any{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
		}
	}
}

func TestGetEntries_PagingAndHasMore(t *testing.T) {
	env := newTestEnv(t, "")
	for i := 0; i < 7; i++ {
		env.publish(t, fmt.Sprintf("entry number %d", i), nil)
		time.Sleep(2 * time.Millisecond) // distinct createdAt ordering
	}

	var page1 feedResponse
	message(t, env.post(t, "/api/entry?Action=GetEntries", map[string]any{"page": 1}), &page1)
	if len(page1.Entries) != 6 || !page1.HasMore {
		t.Fatalf("page 1: %d entries, hasMore=%v; want 6, true", len(page1.Entries), page1.HasMore)
	}

	var page2 feedResponse
	message(t, env.post(t, "/api/entry?Action=GetEntries", map[string]any{"page": 2}), &page2)
	if len(page2.Entries) != 1 || page2.HasMore {
		t.Fatalf("page 2: %d entries, hasMore=%v; want 1, false", len(page2.Entries), page2.HasMore)
	}

	// Newest first across the page boundary.
	if page1.Entries[0].CreatedAt.Before(page2.Entries[0].CreatedAt) {
		t.Error("feed not in reverse-chronological order")
	}
}

func TestGetEntries_TagAndDateFilters(t *testing.T) {
	env := newTestEnv(t, "")
	tagged := env.publish(t, "tagged one", map[string]any{"tags": []string{"travel"}})
	env.publish(t, "untagged", nil)

	var byTag feedResponse
	message(t, env.post(t, "/api/entry?Action=GetEntries", map[string]any{
		"page": 1,
		"c":    []map[string]any{{"field": "tag", "value": "travel"}},
	}), &byTag)
	if len(byTag.Entries) != 1 || byTag.Entries[0].ID != tagged.ID {
		t.Fatalf("tag filter entries = %+v, want only id %d", byTag.Entries, tagged.ID)
	}

	today := time.Now().UTC().Format("2006-01-02")
	var byDate feedResponse
	message(t, env.post(t, "/api/entry?Action=GetEntries", map[string]any{
		"page": 1,
		"c":    []map[string]any{{"field": "date", "operator": "eq", "value": today}},
	}), &byDate)
	if len(byDate.Entries) != 2 {
		t.Errorf("date eq today = %d entries, want 2", len(byDate.Entries))
	}

	var none feedResponse
	message(t, env.post(t, "/api/entry?Action=GetEntries", map[string]any{
		"page": 1,
		"c":    []map[string]any{{"field": "date", "operator": "eq", "value": "1999-01-01"}},
	}), &none)
	if len(none.Entries) != 0 {
		t.Errorf("date eq 1999 = %d entries, want 0", len(none.Entries))
	}
}

func TestUpdateEntry_DeletesRemovedImage(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.uploadPhoto(t, "photo.png")

	var draft models.Entry
	message(t, env.post(t, "/api/entry?Action=GetDraft", nil), &draft)
	w := env.post(t, "/api/entry?Action=CreateEntryFromDraft", map[string]any{
		"id": draft.ID,
		"content": []map[string]any{
			{"type": "text", "content": "with photo"},
			{"type": "image", "content": id},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d", w.Code)
	}
	var e models.Entry
	message(t, w, &e)

	w = env.post(t, "/api/entry?Action=UpdateEntry", map[string]any{
		"id":      e.ID,
		"content": []map[string]any{{"type": "text", "content": "photo removed"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	if env.media.Exists(id) {
		t.Error("removed image still on disk after update")
	}
}

func TestDiscardEntry_DeletesSessionUploads(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.uploadPhoto(t, "abandoned.png")

	var draft models.Entry
	message(t, env.post(t, "/api/entry?Action=GetDraft", nil), &draft)

	w := env.post(t, "/api/entry?Action=DiscardEntry", map[string]any{
		"id":      draft.ID,
		"content": []map[string]any{{"type": "image", "content": id}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("discard status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Deleted []string `json:"deleted"`
	}
	message(t, w, &resp)
	if len(resp.Deleted) != 1 || resp.Deleted[0] != id {
		t.Errorf("deleted = %v, want [%s]", resp.Deleted, id)
	}
	if env.media.Exists(id) {
		t.Error("session upload still on disk after discard")
	}

	// The draft itself survives untouched.
	got := env.store.Get(draft.ID)
	if got == nil || got.Visibility != models.VisibilityDraft || len(got.Content) != 0 {
		t.Errorf("draft mutated by discard: %+v", got)
	}
}

func TestDeleteEntry(t *testing.T) {
	env := newTestEnv(t, "")
	e := env.publish(t, "short lived", nil)

	w := env.post(t, "/api/entry?Action=DeleteEntry", map[string]any{"id": e.ID})
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = env.post(t, "/api/entry?Action=GetEntry", map[string]any{"id": e.ID})
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
	w = env.post(t, "/api/entry?Action=DeleteEntry", map[string]any{"id": e.ID})
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestSave_InvalidContentRejected(t *testing.T) {
	env := newTestEnv(t, "")
	var draft models.Entry
	message(t, env.post(t, "/api/entry?Action=GetDraft", nil), &draft)

	w := env.post(t, "/api/entry?Action=CreateEntryFromDraft", map[string]any{
		"id":      draft.ID,
		"content": []map[string]any{{"type": "text", "content": "   "}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := env.store.Get(draft.ID); got.Visibility != models.VisibilityDraft {
		t.Error("draft promoted despite invalid content")
	}
}

func TestSearchEntries(t *testing.T) {
	env := newTestEnv(t, "")
	hit := env.publish(t, "walking in the rain", nil)
	env.publish(t, "sunny afternoon", nil)

	w := env.post(t, "/api/entry/search/rain", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var entries []models.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("search response is not a bare array: %v (body %s)", err, w.Body.String())
	}
	if len(entries) != 1 || entries[0].ID != hit.ID {
		t.Errorf("search = %+v, want only id %d", entries, hit.ID)
	}
}

func TestSearchEntries_NoResultCap(t *testing.T) {
	env := newTestEnv(t, "")
	for i := 0; i < 25; i++ {
		env.publish(t, "waterfall hike", nil)
	}

	w := env.post(t, "/api/entry/search/waterfall", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var entries []models.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("search response is not a bare array: %v", err)
	}
	if len(entries) != 25 {
		t.Errorf("search returned %d of 25 matching entries", len(entries))
	}
}

func TestMetaActions(t *testing.T) {
	env := newTestEnv(t, "")
	env.publish(t, "one two three", nil)
	env.post(t, "/api/entry?Action=GetDraft", nil) // open a fresh draft

	var count struct {
		Count int `json:"count"`
	}
	message(t, env.post(t, "/api/meta?Action=GetEntriesCount", nil), &count)
	if count.Count != 2 {
		t.Errorf("entries count = %d, want 2 (published + draft)", count.Count)
	}

	message(t, env.post(t, "/api/meta?Action=GetWordsCount", nil), &count)
	if count.Count != 3 {
		t.Errorf("words count = %d, want 3", count.Count)
	}

	var dates struct {
		EntryDates []string `json:"entryDates"`
	}
	message(t, env.post(t, "/api/meta?Action=GetEntryDate", nil), &dates)
	if len(dates.EntryDates) != 1 || dates.EntryDates[0] != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("entryDates = %v", dates.EntryDates)
	}
}

func TestUpload_RejectsNonImage(t *testing.T) {
	env := newTestEnv(t, "")
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("photos", "script.sh")
	fw.Write([]byte("#!/bin/sh"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestDeleteMedia_AcceptsFullURLs(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.uploadPhoto(t, "gone.png")

	w := env.post(t, "/api/media?Action=DeleteMedia", map[string]any{
		"ids": []string{"/api/m/" + id},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if env.media.Exists(id) {
		t.Error("media file still on disk")
	}

	// Deleting again is fine: already-gone is success.
	w = env.post(t, "/api/media?Action=DeleteMedia", map[string]any{
		"ids": []string{id},
	})
	if w.Code != http.StatusOK {
		t.Errorf("repeat delete status = %d", w.Code)
	}
}

func TestServeMedia(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.uploadPhoto(t, "served.png")

	req := httptest.NewRequest(http.MethodGet, "/api/m/"+id, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("serve status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("not-really-a-png")) {
		t.Error("served body does not match upload")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/m/missing.png", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_TokenMode(t *testing.T) {
	env := newTestEnv(t, "sekrit")

	w := env.post(t, "/api/entry?Action=GetDraft", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/entry?Action=GetDraft", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}

	// Health endpoints stay open.
	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
