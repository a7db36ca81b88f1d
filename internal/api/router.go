package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mosaic/internal/entryservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *entryservice.Service, authEnabled bool, token string, sseHandler http.Handler, log *slog.Logger) chi.Router {
	h := NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Entries.
	r.Get("/entries/latest", h.Latest)
	r.Get("/entries/previous", h.Previous)
	r.Get("/entries/{date}", h.ByDate)
	r.Get("/calendar", h.Calendar)

	// Navigation.
	r.Get("/start", h.Start)
	r.Get("/menu", h.Menu)
	r.Get("/dispatch", h.Dispatch)

	// Publishing.
	r.Get("/publishes", h.Publishes)
	r.Get("/status", h.Status)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewHealthRouter serves the unauthenticated liveness and readiness probes.
func NewHealthRouter(svc *entryservice.Service, log *slog.Logger) chi.Router {
	h := NewHandler(svc, log)
	r := chi.NewRouter()
	r.Get("/live", h.Live)
	r.Get("/ready", h.Ready)
	return r
}

// NewMediaRouter serves files from dir at GET /{filename}.
func NewMediaRouter(dir string) chi.Router {
	mh := NewMediaHandler(dir)
	r := chi.NewRouter()
	r.Get("/{filename}", mh.ServeFile)
	return r
}
