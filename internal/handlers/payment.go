package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

// defaultUpcomingDays is the horizon of the upcoming due-date list.
const defaultUpcomingDays = 7

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// List: GET /api/payments[?client_id=][?from=&to=]
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	var (
		items []models.Payment
		err   error
	)
	switch clientID := r.URL.Query().Get("client_id"); {
	case clientID != "":
		items, err = h.payments.ByClient(r.Context(), clientID)
	case from != nil && to != nil:
		items, err = h.payments.ByDateRange(r.Context(), *from, *to)
	default:
		items, err = h.payments.List(r.Context())
	}
	list(w, r, items, err)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.Get(r.Context(), r.PathValue("id"))
	found(w, r, p, err)
}

// NextNumber: GET /api/payments/next-number
func (h *PaymentHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	n, err := h.payments.NextNumber(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"number": n})
}

// Settle: POST /api/payments records the payment and resettles every
// invoice it is allocated to.
func (h *PaymentHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var in services.PaymentInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.payments.Settle(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// Resettle: PUT /api/payments/{id} replaces lines and allocations and
// resettles both the previous and the new invoices.
func (h *PaymentHandler) Resettle(w http.ResponseWriter, r *http.Request) {
	var in services.PaymentInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.payments.Resettle(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// ByInvoice: GET /api/invoices/{id}/allocations
func (h *PaymentHandler) ByInvoice(w http.ResponseWriter, r *http.Request) {
	items, err := h.payments.ByInvoice(r.Context(), r.PathValue("id"))
	list(w, r, items, err)
}

// Lines: GET /api/payment-lines?instrument=cheque
func (h *PaymentHandler) Lines(w http.ResponseWriter, r *http.Request) {
	instrument := models.Instrument(r.URL.Query().Get("instrument"))
	if !instrument.Valid() {
		httpx.JSONError(w, http.StatusBadRequest, "bad_request", "instrument is required")
		return
	}
	items, err := h.payments.LinesByInstrument(r.Context(), instrument)
	list(w, r, items, err)
}

type lineStatusUpdate struct {
	Status models.ClearingStatus `json:"status"`
}

// UpdateLineStatus: POST /api/payment-lines/{id}/status
func (h *PaymentHandler) UpdateLineStatus(w http.ResponseWriter, r *http.Request) {
	var in lineStatusUpdate
	if !decode(w, r, &in) {
		return
	}
	if err := h.payments.UpdateLineStatus(r.Context(), r.PathValue("id"), in.Status); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DueDates: GET /api/due-dates
//
//	?view=upcoming[&days=N]   pending, due today through N days ahead
//	?view=overdue             pending, due before today
//	?status=pending|cleared|rejected
func (h *PaymentHandler) DueDates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		items []models.PaymentLine
		err   error
	)
	switch q.Get("view") {
	case "upcoming":
		days := defaultUpcomingDays
		if v := q.Get("days"); v != "" {
			n, convErr := strconv.Atoi(v)
			if convErr != nil || n < 0 {
				httpx.JSONError(w, http.StatusBadRequest, "bad_request", "days must be a non-negative integer")
				return
			}
			days = n
		}
		items, err = h.payments.UpcomingDueDates(r.Context(), days)
	case "overdue":
		items, err = h.payments.OverdueDueDates(r.Context())
	default:
		items, err = h.payments.DueDates(r.Context(), models.ClearingStatus(q.Get("status")))
	}
	list(w, r, items, err)
}

type totalResponse struct {
	Total decimal.Decimal `json:"total"`
}

// Total: GET /api/payments/total?client_id= or ?from=&to=
func (h *PaymentHandler) Total(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	var (
		total decimal.Decimal
		err   error
	)
	switch clientID := r.URL.Query().Get("client_id"); {
	case clientID != "":
		total, err = h.payments.TotalByClient(r.Context(), clientID)
	case from != nil && to != nil:
		total, err = h.payments.TotalCollected(r.Context(), *from, *to)
	default:
		httpx.JSONError(w, http.StatusBadRequest, "bad_request", "client_id or from/to is required")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totalResponse{Total: total})
}
