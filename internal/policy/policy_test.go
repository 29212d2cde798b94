package policy_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/gate"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/policy"
	"github.com/diewo77/go-rentals/internal/services"
)

func setupUsers(t *testing.T) *services.UserService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return services.NewUserService(db)
}

func createUser(t *testing.T, users *services.UserService, email string, role models.Role) *models.User {
	t.Helper()
	u, err := users.Create(context.Background(), services.NewUser{Email: email, Role: role, Password: "secret-pass"})
	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return u
}

func TestProfileFor(t *testing.T) {
	admin := policy.ProfileFor(models.RoleAdmin)
	user := policy.ProfileFor(models.RoleUser)
	if policy.ProfileFor("guest") != nil {
		t.Error("unknown role should have no profile")
	}
	tests := []struct {
		perm  gate.Permission
		admin bool
		user  bool
	}{
		{"invoice:create", true, true},
		{"payment:settle", true, true},
		{"rental:delete", true, true},
		{"dashboard:view", true, true},
		{"parameter:list", true, true},
		{"parameter:create", true, false},
		{"settings:update", true, false},
		{"user:create", true, false},
		{"user:list", true, false},
		{"user:update", true, true},
	}
	for _, tt := range tests {
		if got := admin.HasPermission(tt.perm); got != tt.admin {
			t.Errorf("admin %s = %v, want %v", tt.perm, got, tt.admin)
		}
		if got := user.HasPermission(tt.perm); got != tt.user {
			t.Errorf("user %s = %v, want %v", tt.perm, got, tt.user)
		}
	}
}

func TestAuthGate_Authorize(t *testing.T) {
	users := setupUsers(t)
	admin := createUser(t, users, "admin@example.com", models.RoleAdmin)
	clerk := createUser(t, users, "clerk@example.com", models.RoleUser)
	other := createUser(t, users, "other@example.com", models.RoleUser)
	ag := policy.NewAuthGate(users, time.Minute)

	anon := context.Background()
	asAdmin := auth.WithUserID(anon, admin.ID)
	asClerk := auth.WithUserID(anon, clerk.ID)

	if err := ag.Authorize(anon, gate.ActionList, policy.ResourceInvoice, nil); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("anonymous: got %v", err)
	}
	if err := ag.Authorize(asClerk, gate.ActionCreate, policy.ResourceInvoice, nil); err != nil {
		t.Errorf("clerk create invoice: %v", err)
	}
	if err := ag.Authorize(asClerk, gate.ActionUpdate, policy.ResourceSettings, nil); !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("clerk update settings: got %v", err)
	}
	if err := ag.Authorize(asClerk, gate.ActionUpdate, policy.ResourceUser, clerk); err != nil {
		t.Errorf("clerk should update own account: %v", err)
	}
	if err := ag.Authorize(asClerk, gate.ActionUpdate, policy.ResourceUser, other); !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("clerk updating another account: got %v", err)
	}
	if err := ag.Authorize(asAdmin, gate.ActionUpdate, policy.ResourceUser, other); err != nil {
		t.Errorf("admin bypasses the self policy: %v", err)
	}
}

func TestAuthGate_InvalidateUser(t *testing.T) {
	users := setupUsers(t)
	clerk := createUser(t, users, "clerk@example.com", models.RoleUser)
	ag := policy.NewAuthGate(users, time.Hour)
	ctx := auth.WithUserID(context.Background(), clerk.ID)

	if ag.CanProfile(ctx, gate.ActionCreate, policy.ResourceUser) {
		t.Fatal("clerk should not create users")
	}
	role := models.RoleAdmin
	if _, err := users.Update(ctx, clerk.ID, models.UserPatch{Role: &role}); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if ag.CanProfile(ctx, gate.ActionCreate, policy.ResourceUser) {
		t.Fatal("profile should still be cached")
	}
	ag.InvalidateUser(clerk.ID)
	if !ag.CanProfile(ctx, gate.ActionCreate, policy.ResourceUser) {
		t.Error("promotion should apply after invalidation")
	}

	disabled := false
	if _, err := users.Update(ctx, clerk.ID, models.UserPatch{Active: &disabled}); err != nil {
		t.Fatalf("disable: %v", err)
	}
	ag.InvalidateUser(clerk.ID)
	if ag.CanProfile(ctx, gate.ActionView, policy.ResourceInvoice) {
		t.Error("disabled user should have no profile")
	}
}

func TestAuthGate_Middleware(t *testing.T) {
	users := setupUsers(t)
	admin := createUser(t, users, "admin@example.com", models.RoleAdmin)
	clerk := createUser(t, users, "clerk@example.com", models.RoleUser)
	ag := policy.NewAuthGate(users, time.Minute)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name    string
		handler http.Handler
		userID  string
		want    int
	}{
		{"admin gate anonymous", ag.RequireAdmin()(ok), "", http.StatusUnauthorized},
		{"admin gate clerk", ag.RequireAdmin()(ok), clerk.ID, http.StatusForbidden},
		{"admin gate admin", ag.RequireAdmin()(ok), admin.ID, http.StatusNoContent},
		{"permission anonymous", ag.RequirePermission(policy.ResourceRental, gate.ActionCreate)(ok), "", http.StatusUnauthorized},
		{"permission granted", ag.RequirePermission(policy.ResourceRental, gate.ActionCreate)(ok), clerk.ID, http.StatusNoContent},
		{"permission denied", ag.RequirePermission(policy.ResourceParameter, gate.ActionDelete)(ok), clerk.ID, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req = req.WithContext(auth.WithUserID(req.Context(), tt.userID))
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
