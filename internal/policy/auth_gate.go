package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/httpx"
	"github.com/diewo77/go-rentals/internal/services"
)

// AuthGate holds the configured gate with its profile cache.
// Use this as the central authorization point in handlers and routes.
type AuthGate struct {
	Gate          *gate.Gate[string]
	CacheResolver *gate.CachedResolver[string]
}

// NewAuthGate builds a gate whose profiles come from user roles, cached for
// cacheTTL. The user resource is guarded by SelfPolicy.
func NewAuthGate(users *services.UserService, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[string](NewRoleResolver(users), cacheTTL)
	g := gate.New[string](cached)
	ag := &AuthGate{Gate: g, CacheResolver: cached}
	g.Register(ResourceUser, NewSelfPolicy(ag.isAdmin))
	return ag
}

func (ag *AuthGate) isAdmin(ctx context.Context, userID string) bool {
	return ag.Gate.HasPermission(ctx, userID, gate.PermissionAll)
}

// Authorize checks the current user against action on resourceType. A
// non-nil resource is also checked by the resource's policy.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

// CanProfile checks only profile permissions.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, userID, action, resourceType)
}

// InvalidateUser clears the cached profile of one user.
// Call this when a user's role or active flag changes.
func (ag *AuthGate) InvalidateUser(userID string) {
	ag.CacheResolver.Invalidate(userID)
}

// RequirePermission returns middleware that checks a profile permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserIDFromContext(r.Context()); !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if !ag.CanProfile(r.Context(), action, resourceType) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only lets admins through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if !ag.isAdmin(r.Context(), userID) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
