package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/services"
)

type SettingsHandler struct {
	cache *services.SettingsCache
}

func NewSettingsHandler(cache *services.SettingsCache) *SettingsHandler {
	return &SettingsHandler{cache: cache}
}

// Get: GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.cache.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

// Update: PATCH /api/settings writes the keys and reloads the cache.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p services.SettingsPatch
	if !decode(w, r, &p) {
		return
	}
	s, err := h.cache.Update(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

// Reload: POST /api/settings/reload
func (h *SettingsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	s, err := h.cache.Reload(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}
