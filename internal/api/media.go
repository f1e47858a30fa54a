package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lauf/internal/media"
)

// maxUploadFiles caps how many photos a single upload request may carry.
const maxUploadFiles = 10

// MediaHandler accepts photo uploads and serves stored media files.
type MediaHandler struct {
	store  *media.Store
	logger *slog.Logger
}

// NewMediaHandler creates a handler backed by the media store.
func NewMediaHandler(store *media.Store, logger *slog.Logger) *MediaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaHandler{store: store, logger: logger}
}

// Upload handles POST /api/upload (multipart/form-data, field "photos").
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadFiles*media.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "file too large or invalid multipart")
		return
	}
	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		writeMessage(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(files) > maxUploadFiles {
		writeMessage(w, http.StatusBadRequest, "Too many files")
		return
	}

	photos := make([]string, 0, len(files))
	for _, hdr := range files {
		f, err := hdr.Open()
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid multipart file")
			return
		}
		id, err := h.store.Upload(hdr.Filename, f)
		f.Close()
		if err != nil {
			if errors.Is(err, media.ErrUnsupportedType) {
				writeMessage(w, http.StatusBadRequest, "Only image files are allowed")
			} else {
				h.logger.Error("upload failed", slog.String("file", hdr.Filename), slog.String("error", err.Error()))
				writeMessage(w, http.StatusInternalServerError, "Failed to upload photos")
			}
			return
		}
		photos = append(photos, h.store.Resolve(id))
	}

	writeJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

// Actions handles POST /api/media?Action=... (currently only DeleteMedia).
// Per-file failures are logged, never surfaced: deletion is best-effort and
// "already gone" is success.
func (h *MediaHandler) Actions(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("Action") {
	case "DeleteMedia":
		var req deleteMediaRequest
		if err := decodeBody(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		for _, ref := range req.IDs {
			id := media.TrailingID(ref)
			if err := h.store.Delete(id); err != nil {
				h.logger.Warn("media delete failed", slog.String("id", id), slog.String("error", err.Error()))
			}
		}
		if req.IDs == nil {
			req.IDs = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ids": req.IDs})

	default:
		writeMessage(w, http.StatusBadRequest, "Unknown Action")
	}
}

// Serve handles GET /api/m/{id}.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	abs, err := h.store.Path(id)
	if err != nil {
		http.Error(w, "invalid media id", http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); statErr != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
