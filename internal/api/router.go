package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/genomatch/internal/library"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *library.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	fh := NewFileHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Genomes.
	r.Get("/genomes", h.ListGenomes)
	r.Get("/genomes/{name}", h.GetGenome)
	r.Get("/genomes/{name}/extract", h.Extract)

	// Search.
	r.Get("/search", h.SearchNames)
	r.Post("/search/fragment", h.FindFragment)
	r.Post("/search/related", h.FindRelated)

	// Library files.
	r.Get("/library", fh.ListFiles)
	r.Post("/library", fh.Upload)
	r.Delete("/library/*", fh.Delete)

	r.Get("/status", h.Status)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
