package gate

import (
	"context"
	"slices"
)

// Profile is a named set of permissions.
type Profile interface {
	Name() string
	HasPermission(p Permission) bool
	Permissions() []Permission
}

// ProfileResolver maps a user to a profile. A nil profile with a nil error
// means the user has none.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// ResolverFunc adapts a function to ProfileResolver.
type ResolverFunc[U any] func(ctx context.Context, user U) (Profile, error)

func (f ResolverFunc[U]) Resolve(ctx context.Context, user U) (Profile, error) { return f(ctx, user) }

// StaticProfile is an in-memory profile.
type StaticProfile struct {
	name  string
	perms []Permission
}

func NewStaticProfile(name string, perms ...Permission) *StaticProfile {
	return &StaticProfile{name: name, perms: perms}
}

func (p *StaticProfile) Name() string { return p.name }

func (p *StaticProfile) Permissions() []Permission { return slices.Clone(p.perms) }

func (p *StaticProfile) HasPermission(requested Permission) bool {
	return slices.ContainsFunc(p.perms, func(perm Permission) bool { return perm.Matches(requested) })
}
