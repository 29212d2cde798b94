package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

type ExpenseHandler struct {
	expenses *services.ExpenseService
}

func NewExpenseHandler(expenses *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// List: GET /api/expenses[?vehicle_id=][?from=&to=]
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	var (
		items []models.Expense
		err   error
	)
	switch vehicleID := r.URL.Query().Get("vehicle_id"); {
	case vehicleID != "":
		items, err = h.expenses.ByVehicle(r.Context(), vehicleID)
	case from != nil && to != nil:
		items, err = h.expenses.ByDateRange(r.Context(), *from, *to)
	default:
		items, err = h.expenses.List(r.Context())
	}
	list(w, r, items, err)
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.expenses.Get(r.Context(), r.PathValue("id"))
	found(w, r, e, err)
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var e models.Expense
	if !decode(w, r, &e) {
		return
	}
	if err := h.expenses.Create(r.Context(), &e); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.ExpensePatch
	if !decode(w, r, &p) {
		return
	}
	e, err := h.expenses.Update(r.Context(), r.PathValue("id"), p)
	found(w, r, e, err)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.expenses.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
