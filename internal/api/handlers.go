package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prasetya/wilayah/internal/area"
	"github.com/prasetya/wilayah/internal/cache"
	"github.com/prasetya/wilayah/internal/groundtruth"
)

const defaultSearchLimit = 5

// Handler holds API route handlers. The index is fetched per request so a
// background rebuild can swap it in without restarting the server.
type Handler struct {
	index   func() *groundtruth.Index
	version func() *cache.Metadata
}

// NewHandler creates a new Handler.
func NewHandler(index func() *groundtruth.Index, version func() *cache.Metadata) *Handler {
	return &Handler{index: index, version: version}
}

// AreaResponse is the JSON shape of one area record.
type AreaResponse struct {
	Type       string            `json:"type"`
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	ParentCode string            `json:"parent_code,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

func toResponse(t area.Type, rec *groundtruth.Record) AreaResponse {
	return AreaResponse{
		Type:       string(t),
		Code:       rec.Code,
		Name:       rec.Name,
		ParentCode: rec.ParentCode,
		Extra:      rec.Extra,
	}
}

// areaType parses the {type} URL segment.
func areaType(r *http.Request) (area.Type, error) {
	return area.Parse(chi.URLParam(r, "type"))
}

// GetArea handles GET /api/areas/{type}/{code}.
func (h *Handler) GetArea(w http.ResponseWriter, r *http.Request) {
	t, err := areaType(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown area type"))
		return
	}
	code := chi.URLParam(r, "code")
	rec, ok := h.index().Get(t, code)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(t, rec))
}

// ListChildren handles GET /api/areas/{type}/{code}/children.
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	t, err := areaType(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown area type"))
		return
	}
	childType := area.ChildOf(t)
	if childType == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("area type has no children"))
		return
	}
	code := chi.URLParam(r, "code")
	ix := h.index()
	if _, ok := ix.Get(t, code); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	children := ix.ChildrenOf(childType, code)
	items := make([]AreaResponse, len(children))
	for i, rec := range children {
		items[i] = toResponse(childType, rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":  string(childType),
		"items": items,
		"total": len(items),
	})
}

// Search handles GET /api/search?area=&q=&parent=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := area.Parse(q.Get("area"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'area' is required"))
		return
	}
	query := q.Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ix := h.index()
	matches := ix.SearchName(t, q.Get("parent"), query, limit, 0)
	results := make([]map[string]any, len(matches))
	for i, m := range matches {
		rec, _ := ix.Get(t, m.Key)
		results[i] = map[string]any{
			"area":  toResponse(t, rec),
			"score": m.Score,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Version handles GET /api/version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	meta := h.version()
	if meta == nil {
		writeJSON(w, http.StatusOK, map[string]any{"cached": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cached":       true,
		"version":      meta.Version,
		"release_date": meta.ReleaseDate,
		"fetched_at":   meta.FetchedAt,
	})
}
