package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/services"
	"github.com/diewo77/go-rentals/internal/store"
	"github.com/diewo77/go-rentals/validation"
)

// Authorizer checks the current user against an action on a resource.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
}

// writeError maps service errors to HTTP statuses. Anything unknown is a 500
// and gets logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var v validation.Violations
	switch {
	case errors.As(err, &v):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
	case errors.Is(err, httpx.ErrBadJSON), errors.Is(err, store.ErrBadField), errors.Is(err, store.ErrUnknownOp):
		httpx.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrRentalNotFound),
		errors.Is(err, services.ErrInvoiceNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrPaymentLineNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrNoRentals),
		errors.Is(err, services.ErrDuplicateRental),
		errors.Is(err, services.ErrInvalidStatus):
		httpx.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, services.ErrNotBillable),
		errors.Is(err, services.ErrMixedClients),
		errors.Is(err, services.ErrGeneralConfig):
		httpx.JSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, gate.ErrUnauthorized):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, gate.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func notFound(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
}

// decode reads the body into dst and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// found writes doc or a 404 when the lookup came back empty.
func found[T any](w http.ResponseWriter, r *http.Request, doc *T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if doc == nil {
		notFound(w)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func list[T any](w http.ResponseWriter, r *http.Request, items []T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	httpx.JSON(w, http.StatusOK, listResponse[T]{Items: items, Total: len(items)})
}

// dateRange reads the from/to query pair. ok is false when a response was
// already written.
func dateRange(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	f, err := httpx.QueryTime(r, "from")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return nil, nil, false
	}
	t, err := httpx.QueryTime(r, "to")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return nil, nil, false
	}
	return f, httpx.EndOfDay(t), true
}
