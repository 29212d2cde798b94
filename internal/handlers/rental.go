package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

type RentalHandler struct {
	rentals *services.RentalService
}

func NewRentalHandler(rentals *services.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

// List: GET /api/rentals
//
//	?from=&to=                    rentals overlapping the window (calendar)
//	?client_id=&billing_status=   a client's rentals in one billing status
//	?client_id=&billable=1        a client's rentals that can be invoiced now
func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	var (
		items []services.RentalView
		err   error
	)
	switch clientID := q.Get("client_id"); {
	case from != nil && to != nil:
		items, err = h.rentals.Overlapping(r.Context(), *from, *to)
	case clientID != "" && q.Get("billable") == "1":
		items, err = h.rentals.Billable(r.Context(), clientID)
	case clientID != "":
		status := models.BillingStatus(q.Get("billing_status"))
		if status == "" {
			status = models.BillingOpen
		}
		items, err = h.rentals.ByClientAndBillingStatus(r.Context(), clientID, status)
	default:
		items, err = h.rentals.List(r.Context())
	}
	list(w, r, items, err)
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.rentals.Get(r.Context(), r.PathValue("id"))
	found(w, r, v, err)
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rental models.Rental
	if !decode(w, r, &rental) {
		return
	}
	v, err := h.rentals.Create(r.Context(), &rental)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *RentalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.RentalPatch
	if !decode(w, r, &p) {
		return
	}
	v, err := h.rentals.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *RentalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.rentals.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type billingStatusUpdate struct {
	IDs    []string             `json:"ids"`
	Status models.BillingStatus `json:"status"`
}

// SetBillingStatus: POST /api/rentals/billing-status
func (h *RentalHandler) SetBillingStatus(w http.ResponseWriter, r *http.Request) {
	var in billingStatusUpdate
	if !decode(w, r, &in) {
		return
	}
	if in.Status != models.BillingOpen && in.Status != models.BillingInvoiced {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"status": "invalid_choice"})
		return
	}
	if err := h.rentals.SetBillingStatus(r.Context(), in.IDs, in.Status); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
