package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxBody caps request bodies read by DecodeJSON.
const maxBody = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"encode_error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// ErrBadJSON wraps body decoding failures.
var ErrBadJSON = errors.New("invalid json body")

// DecodeJSON reads one JSON value from the request body into dst. Unknown
// fields are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	return nil
}

// DateLayout is the calendar date format accepted in query strings.
const DateLayout = "2006-01-02"

// QueryTime parses an optional query parameter as RFC 3339 or a calendar
// date. It returns nil when the parameter is absent.
func QueryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, DateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s: invalid date %q", name, raw)
}

// EndOfDay moves a calendar-date bound to the last instant of that day so
// "to=2025-06-30" includes the whole day. Other times are returned as is.
func EndOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	if h, m, s := t.Clock(); h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		e := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		return &e
	}
	return t
}
