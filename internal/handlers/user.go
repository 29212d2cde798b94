package handlers

import (
	"net/http"

	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

// ProfileInvalidator drops cached authorization profiles.
type ProfileInvalidator interface {
	InvalidateUser(userID string)
}

// UserHandler manages accounts. Routes other than Get and SetPassword are
// admin-only; those two go through the user policy so operators reach their
// own account.
type UserHandler struct {
	users       *services.UserService
	authz       Authorizer
	invalidator ProfileInvalidator
}

func NewUserHandler(users *services.UserService, authz Authorizer, invalidator ProfileInvalidator) *UserHandler {
	return &UserHandler{users: users, authz: authz, invalidator: invalidator}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.users.List(r.Context())
	list(w, r, items, err)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.NewUser
	if !decode(w, r, &in) {
		return
	}
	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

// load fetches the target user and checks action against it.
func (h *UserHandler) load(w http.ResponseWriter, r *http.Request, action gate.Action) (*models.User, bool) {
	u, err := h.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if u == nil {
		notFound(w)
		return nil, false
	}
	if err := h.authz.Authorize(r.Context(), action, "user", u); err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return u, true
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.UserPatch
	if !decode(w, r, &p) {
		return
	}
	id := r.PathValue("id")
	u, err := h.users.Update(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidator.InvalidateUser(id)
	httpx.JSON(w, http.StatusOK, u)
}

type passwordReset struct {
	Password string `json:"password"`
}

// SetPassword: POST /api/users/{id}/password
func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var in passwordReset
	if !decode(w, r, &in) {
		return
	}
	u, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	if err := h.users.SetPassword(r.Context(), u.ID, in.Password); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidator.InvalidateUser(id)
	w.WriteHeader(http.StatusNoContent)
}
