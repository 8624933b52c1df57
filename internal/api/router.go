package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/prasetya/wilayah/internal/cache"
	"github.com/prasetya/wilayah/internal/groundtruth"
)

// NewRouter creates a chi router with all API routes mounted. index is
// called per request, so the caller may swap the underlying index at any
// time; version reports the cached dataset metadata.
func NewRouter(index func() *groundtruth.Index, version func() *cache.Metadata) chi.Router {
	h := NewHandler(index, version)

	r := chi.NewRouter()

	r.Get("/areas/{type}/{code}", h.GetArea)
	r.Get("/areas/{type}/{code}/children", h.ListChildren)
	r.Get("/search", h.Search)
	r.Get("/version", h.Version)

	return r
}
