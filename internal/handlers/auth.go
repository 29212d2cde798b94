package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/services"
)

type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login: POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}
	u, err := h.users.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	auth.CreateSession(w, u.ID)
	httpx.JSON(w, http.StatusOK, u)
}

// Logout: POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me: GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	u, err := h.users.Get(r.Context(), uid)
	found(w, r, u, err)
}

type passwordChange struct {
	Current string `json:"current"`
	New     string `json:"new"`
}

// ChangePassword: POST /api/auth/password. The current password is checked
// again before the new one is stored.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in passwordChange
	if !decode(w, r, &in) {
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	u, err := h.users.Get(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if u == nil {
		notFound(w)
		return
	}
	if _, err := h.users.Authenticate(r.Context(), u.Email, in.Current); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.users.SetPassword(r.Context(), uid, in.New); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
