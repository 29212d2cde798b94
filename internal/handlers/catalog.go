package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/services"
)

// CatalogHandler serves CRUD for one reference collection (brands, models,
// vehicles, clients).
type CatalogHandler[T any, P services.Patch] struct {
	catalog *services.Catalog[T, P]
	// filters are the query parameters accepted by List, each an equality
	// on the column of the same name.
	filters []string
}

func NewCatalogHandler[T any, P services.Patch](c *services.Catalog[T, P], filters ...string) *CatalogHandler[T, P] {
	return &CatalogHandler[T, P]{catalog: c, filters: filters}
}

// List: GET /api/{collection}?{filter}=value. Only the first filter present
// applies.
func (h *CatalogHandler[T, P]) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, f := range h.filters {
		if v := q.Get(f); v != "" {
			items, err := h.catalog.Where(r.Context(), f, v)
			list(w, r, items, err)
			return
		}
	}
	items, err := h.catalog.List(r.Context())
	list(w, r, items, err)
}

func (h *CatalogHandler[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	found(w, r, doc, err)
}

func (h *CatalogHandler[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	doc := new(T)
	if !decode(w, r, doc) {
		return
	}
	if err := h.catalog.Create(r.Context(), doc); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *CatalogHandler[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	var p P
	if !decode(w, r, &p) {
		return
	}
	doc, err := h.catalog.Update(r.Context(), r.PathValue("id"), p)
	found(w, r, doc, err)
}

func (h *CatalogHandler[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
