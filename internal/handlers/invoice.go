package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InvoiceHandler struct {
	invoices *services.InvoiceService
	now      services.Clock
}

func NewInvoiceHandler(invoices *services.InvoiceService, now services.Clock) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, now: now}
}

// List: GET /api/invoices[?settlement=unpaid|partial[&client_id=]]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		items []models.Invoice
		err   error
	)
	switch q.Get("settlement") {
	case "unpaid":
		items, err = h.invoices.Unpaid(r.Context(), q.Get("client_id"))
	case "partial":
		items, err = h.invoices.PartiallySettled(r.Context(), q.Get("client_id"))
	case "":
		items, err = h.invoices.List(r.Context())
	default:
		httpx.JSONError(w, http.StatusBadRequest, "bad_request", "settlement must be unpaid or partial")
		return
	}
	list(w, r, items, err)
}

// Get: GET /api/invoices/{id} returns the header with its lines.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.GetWithLines(r.Context(), r.PathValue("id"))
	found(w, r, inv, err)
}

// NextNumber: GET /api/invoices/next-number
func (h *InvoiceHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	n, err := h.invoices.NextNumber(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"number": n})
}

type invoiceInput struct {
	Invoice models.Invoice       `json:"invoice"`
	Lines   []models.InvoiceLine `json:"lines"`
}

// Create: POST /api/invoices with an explicit header and lines.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in invoiceInput
	if !decode(w, r, &in) {
		return
	}
	inv, err := h.invoices.Create(r.Context(), &in.Invoice, in.Lines)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// FromRentals: POST /api/invoices/from-rentals
func (h *InvoiceHandler) FromRentals(w http.ResponseWriter, r *http.Request) {
	var req services.RentalInvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	inv, err := h.invoices.InvoiceRentals(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) respondWithInvoice(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := h.invoices.Get(r.Context(), r.PathValue("id"))
	found(w, r, inv, err)
}

// Validate: POST /api/invoices/{id}/validate
func (h *InvoiceHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.respondWithInvoice(w, r, h.invoices.Validate(r.Context(), r.PathValue("id")))
}

// Cancel: POST /api/invoices/{id}/cancel
func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.respondWithInvoice(w, r, h.invoices.Cancel(r.Context(), r.PathValue("id")))
}

// Update: PATCH /api/invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.InvoicePatch
	if !decode(w, r, &p) {
		return
	}
	h.respondWithInvoice(w, r, h.invoices.Update(r.Context(), r.PathValue("id"), p))
}

// Export: GET /api/invoices/export streams the invoice register as xlsx.
// The workbook is built in memory first so a failure still yields a JSON
// error instead of a truncated file.
func (h *InvoiceHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.invoices.ExportRegister(r.Context(), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("factures-%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
