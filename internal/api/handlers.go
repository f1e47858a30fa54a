package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lauf/internal/apperr"
	"github.com/starford/lauf/internal/entrystore"
	"github.com/starford/lauf/internal/journal"
	"github.com/starford/lauf/internal/models"
)

// feedPageSize is the fixed page size of the entry feed.
const feedPageSize = 6

// Index is the slice of the search index the API needs.
type Index interface {
	Search(query string, limit int) ([]int, error)
	WordsCount() (int, error)
	Days() ([]string, error)
}

// Handler holds API route handlers.
type Handler struct {
	journal *journal.Service
	store   *entrystore.Store
	idx     Index
	logger  *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *journal.Service, store *entrystore.Store, idx Index, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{journal: svc, store: store, idx: idx, logger: logger}
}

// Entry handles POST /api/entry?Action=... — the action-dispatched entry protocol.
func (h *Handler) Entry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	switch r.URL.Query().Get("Action") {
	case "GetDraft":
		writeMessage(w, http.StatusOK, h.journal.OpenForCreate())

	case "GetEntries":
		var req feedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		h.feed(w, req)

	case "GetEntry":
		req, ok := decodeEntryRequest(w, r)
		if !ok {
			return
		}
		entry := h.store.Get(req.ID)
		if entry == nil {
			writeMessage(w, http.StatusNotFound, "Entry not found")
			return
		}
		writeMessage(w, http.StatusOK, entry)

	case "CreateEntryFromDraft", "UpdateEntry":
		req, ok := decodeEntryRequest(w, r)
		if !ok {
			return
		}
		res, err := h.journal.Save(req.ID, journal.SaveRequest{
			Content:    req.Content,
			Visibility: models.Visibility(req.Visibility),
			Payload:    req.Payload,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, res.Entry)

	case "DiscardEntry":
		req, ok := decodeEntryRequest(w, r)
		if !ok {
			return
		}
		deleted, err := h.journal.Discard(req.ID, req.Content)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if deleted == nil {
			deleted = []string{}
		}
		writeMessage(w, http.StatusOK, map[string]any{"deleted": deleted})

	case "DeleteEntry":
		req, ok := decodeEntryRequest(w, r)
		if !ok {
			return
		}
		if err := h.journal.Delete(req.ID); err != nil {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeMessage(w, http.StatusBadRequest, "Unknown Action")
	}
}

// Meta handles POST /api/meta?Action=... — feed-adjacent aggregates.
func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("Action") {
	case "GetEntriesCount":
		writeMessage(w, http.StatusOK, map[string]any{"count": h.store.Count()})

	case "GetWordsCount":
		n, err := h.idx.WordsCount()
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, map[string]any{"count": n})

	case "GetEntryDate":
		days, err := h.idx.Days()
		if err != nil {
			h.writeError(w, err)
			return
		}
		if days == nil {
			days = []string{}
		}
		writeMessage(w, http.StatusOK, map[string]any{"entryDates": days})

	default:
		writeMessage(w, http.StatusBadRequest, "Unknown Action")
	}
}

// Search handles POST /api/entry/search/{query}. The response is a bare entry
// array, not the message envelope.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	if decoded, err := url.PathUnescape(query); err == nil {
		query = decoded
	}

	ids, err := h.idx.Search(query, 0)
	if err != nil {
		h.logger.Error("search failed", slog.String("query", query), slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "Failed to search entries")
		return
	}

	entries := make([]*models.Entry, 0, len(ids))
	for _, id := range ids {
		if e := h.store.Get(id); e != nil {
			entries = append(entries, e)
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

// feed filters the published entries by the request conditions and pages them.
func (h *Handler) feed(w http.ResponseWriter, req feedRequest) {
	page := req.Page
	if page < 1 {
		page = 1
	}

	all := h.store.ListPublished()
	filtered := make([]*models.Entry, 0, len(all))
	for _, e := range all {
		match := true
		for _, c := range req.C {
			if !c.Match(e) {
				match = false
				break
			}
		}
		if match {
			filtered = append(filtered, e)
		}
	}

	hasMore := len(filtered) > page*feedPageSize
	lo := min((page-1)*feedPageSize, len(filtered))
	hi := min(page*feedPageSize, len(filtered))

	writeMessage(w, http.StatusOK, feedResponse{Entries: filtered[lo:hi], HasMore: hasMore})
}

func decodeEntryRequest(w http.ResponseWriter, r *http.Request) (entryRequest, bool) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	return req, true
}

// writeError maps domain errors onto the protocol's status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Entry not found")
	case errors.Is(err, apperr.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}
