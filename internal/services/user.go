package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
	"github.com/diewo77/go-rentals/validation"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email, a
// wrong password or a disabled account.
var ErrInvalidCredentials = errors.New("invalid credentials")

// NewUser is the input for creating a user.
type NewUser struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Password string      `json:"password"`
}

// UserService manages back-office accounts.
type UserService struct {
	users *store.Collection[models.User]
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{users: store.New[models.User](db)}
}

// Create hashes the password and stores the user.
func (s *UserService) Create(ctx context.Context, in NewUser) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	validation.OneOf("role", in.Role, []models.Role{models.RoleAdmin, models.RoleUser}, v)
	if len(in.Password) < 8 {
		v["password"] = "too_short"
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{Email: in.Email, Name: in.Name, Role: in.Role, PasswordHash: string(hash), Active: true}
	if _, err := s.users.Insert(ctx, u); err != nil {
		slog.Error("create user", "email", in.Email, "error", err)
		return nil, err
	}
	return u, nil
}

// ByEmail returns the user with email, or nil.
func (s *UserService) ByEmail(ctx context.Context, email string) (*models.User, error) {
	us, err := s.users.Query(ctx, store.Where(store.Eq("email", strings.ToLower(strings.TrimSpace(email)))).Take(1))
	if err != nil || len(us) == 0 {
		return nil, err
	}
	return &us[0], nil
}

// Authenticate checks an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.Active {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns the user, or nil.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.Get(ctx, id)
}

// Exists reports whether an active user has id.
func (s *UserService) Exists(ctx context.Context, id string) bool {
	u, err := s.users.Get(ctx, id)
	return err == nil && u != nil && u.Active
}

// IsAdmin reports whether the user holds the admin role.
func (s *UserService) IsAdmin(ctx context.Context, id string) (bool, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil || u == nil {
		return false, err
	}
	return u.IsAdmin(), nil
}

// List returns all users by email.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.All(ctx, "email")
}

// Update changes name, role or active flag.
func (s *UserService) Update(ctx context.Context, id string, p models.UserPatch) (*models.User, error) {
	if p.Role != nil {
		v := validation.Violations{}
		validation.OneOf("role", *p.Role, []models.Role{models.RoleAdmin, models.RoleUser}, v)
		if err := v.Err(); err != nil {
			return nil, err
		}
	}
	if err := s.users.Update(ctx, id, p.Changes()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.users.Get(ctx, id)
}

// SetPassword replaces a user's password.
func (s *UserService) SetPassword(ctx context.Context, id, password string) error {
	if len(password) < 8 {
		return validation.Violations{"password": "too_short"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, id, map[string]any{"password_hash": string(hash)}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
