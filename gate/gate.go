// Package gate authorizes actions in two steps: the user's profile must hold
// the "resource:action" permission, then an optional per-resource Policy may
// inspect the concrete resource.
package gate

import "context"

// Policy decides on a concrete resource once the profile check passed.
type Policy[U any] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc[U any] func(ctx context.Context, user U, action Action, resource any) bool

func (f PolicyFunc[U]) Can(ctx context.Context, user U, action Action, resource any) bool {
	return f(ctx, user, action, resource)
}

// Gate is the authorization checkpoint. U is the subject type; its zero value
// means anonymous.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver, policies: make(map[string]Policy[U])}
}

// Register sets the policy of a resource type, replacing any previous one.
func (g *Gate[U]) Register(resource string, p Policy[U]) {
	g.policies[resource] = p
}

// Authorize returns ErrUnauthorized for an anonymous user and ErrForbidden
// when the profile or the resource policy denies the action. The policy is
// consulted only when resource is non-nil.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	if !g.CanProfile(ctx, user, action, resourceType) {
		return ErrForbidden
	}
	if resource != nil {
		if p, ok := g.policies[resourceType]; ok && !p.Can(ctx, user, action, resource) {
			return ErrForbidden
		}
	}
	return nil
}

func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanProfile checks the profile permission only.
func (g *Gate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(NewPermission(resourceType, action))
}

// HasPermission checks an arbitrary permission, e.g. PermissionAll.
func (g *Gate[U]) HasPermission(ctx context.Context, user U, p Permission) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	return err == nil && profile != nil && profile.HasPermission(p)
}
