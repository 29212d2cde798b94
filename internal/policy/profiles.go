package policy

import (
	"context"

	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/services"
)

// Resource types checked by the gate.
const (
	ResourceBrand     = "brand"
	ResourceModel     = "model"
	ResourceVehicle   = "vehicle"
	ResourceClient    = "client"
	ResourceRental    = "rental"
	ResourceInvoice   = "invoice"
	ResourcePayment   = "payment"
	ResourceExpense   = "expense"
	ResourceParameter = "parameter"
	ResourceSettings  = "settings"
	ResourceDashboard = "dashboard"
	ResourceUser      = "user"
)

var (
	adminProfile = gate.NewStaticProfile(string(models.RoleAdmin), gate.PermissionAll)

	// Operators run the business day to day. Reference lists, general
	// configuration and accounts other than their own stay read-only.
	userProfile = gate.NewStaticProfile(string(models.RoleUser),
		"brand:*",
		"model:*",
		"vehicle:*",
		"client:*",
		"rental:*",
		"invoice:*",
		"payment:*",
		"expense:*",
		"parameter:view",
		"parameter:list",
		"settings:view",
		"dashboard:view",
		"user:view",
		"user:update",
	)
)

// ProfileFor maps a role to its profile. Unknown roles get none.
func ProfileFor(role models.Role) gate.Profile {
	switch role {
	case models.RoleAdmin:
		return adminProfile
	case models.RoleUser:
		return userProfile
	}
	return nil
}

// RoleResolver resolves profiles from the role stored on the user.
type RoleResolver struct {
	Users *services.UserService
}

func NewRoleResolver(users *services.UserService) *RoleResolver {
	return &RoleResolver{Users: users}
}

// Resolve returns nil for unknown or disabled users.
func (r *RoleResolver) Resolve(ctx context.Context, userID string) (gate.Profile, error) {
	u, err := r.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.Active {
		return nil, nil
	}
	return ProfileFor(u.Role), nil
}

// SelfPolicy lets a user act on their own account only. Admins bypass it.
type SelfPolicy struct {
	isAdmin func(ctx context.Context, userID string) bool
}

func NewSelfPolicy(isAdmin func(ctx context.Context, userID string) bool) *SelfPolicy {
	return &SelfPolicy{isAdmin: isAdmin}
}

func (p *SelfPolicy) Can(ctx context.Context, userID string, _ gate.Action, resource any) bool {
	if p.isAdmin != nil && p.isAdmin(ctx, userID) {
		return true
	}
	u, ok := resource.(*models.User)
	return ok && u != nil && u.ID == userID
}
