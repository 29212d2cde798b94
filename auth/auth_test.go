package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sessionRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, userID)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestParseSession(t *testing.T) {
	req := sessionRequest(t, "0b6f4c1e-7f7e-4a57-9d3b-8b1f3e2f4a10")
	uid, ok := ParseSession(req)
	if !ok || uid != "0b6f4c1e-7f7e-4a57-9d3b-8b1f3e2f4a10" {
		t.Fatalf("ParseSession = %q, %v", uid, ok)
	}

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	tampered.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "other-user." + sign("some-user")})
	if _, ok := ParseSession(tampered); ok {
		t.Fatal("tampered cookie accepted")
	}

	noDot := httptest.NewRequest(http.MethodGet, "/", nil)
	noDot.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "abc"})
	if _, ok := ParseSession(noDot); ok {
		t.Fatal("malformed cookie accepted")
	}
}

func TestRequireAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Middleware(RequireAuth(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: want 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(t, "u1"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("session: want 204, got %d", rec.Code)
	}

	SetUserVerifier(func(ctx context.Context, id string) bool { return id != "u1" })
	defer SetUserVerifier(nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(t, "u1"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("stale session: want 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("stale session cookie not cleared")
	}
}
