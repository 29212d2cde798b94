package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

type ParameterHandler struct {
	params *services.ParameterService
}

func NewParameterHandler(params *services.ParameterService) *ParameterHandler {
	return &ParameterHandler{params: params}
}

// List: GET /api/parameters/{type}. For expense types, ?category= narrows
// to one expense category.
func (h *ParameterHandler) List(w http.ResponseWriter, r *http.Request) {
	t := models.ParameterType(r.PathValue("type"))
	if cat := r.URL.Query().Get("category"); t == models.ParamExpenseType && cat != "" {
		items, err := h.params.ExpenseTypes(r.Context(), models.ExpenseCategory(cat))
		list(w, r, items, err)
		return
	}
	items, err := h.params.ByType(r.Context(), t)
	list(w, r, items, err)
}

// Create: POST /api/parameters
func (h *ParameterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p models.Parameter
	if !decode(w, r, &p) {
		return
	}
	if err := h.params.Create(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// Update: PATCH /api/parameters/{id}
func (h *ParameterHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.ParameterPatch
	if !decode(w, r, &p) {
		return
	}
	if err := h.params.Update(r.Context(), r.PathValue("id"), p); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ParameterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.params.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
