package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// NewRouter creates the root router with the API mounted under /api.
// authEnabled controls whether Bearer token auth is enforced on the API group.
// sseHandler, if non-nil, is mounted at GET /api/events inside the auth group.
func NewRouter(h *Handler, mh *MediaHandler, authEnabled bool, token string, sseHandler http.Handler, corsOrigins []string) chi.Router {
	r := chi.NewRouter()

	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		// Entry protocol.
		r.Post("/entry", h.Entry)
		r.Post("/entry/search/{query}", h.Search)
		r.Post("/meta", h.Meta)

		// Media.
		r.Post("/upload", mh.Upload)
		r.Post("/media", mh.Actions)
		r.Get("/m/{id}", mh.Serve)

		// SSE endpoint (protected by the same auth middleware).
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
