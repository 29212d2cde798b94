package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
	"github.com/diewo77/go-rentals/validation"
)

// ValidateExpense checks category, type and the vehicle reference required by
// vehicle expenses.
func ValidateExpense(e *models.Expense) error {
	v := validation.Violations{}
	validation.RequiredTime("date", e.Date, v)
	types, ok := models.ExpenseTypes[e.Category]
	if !ok {
		v["category"] = "invalid_choice"
	} else if !slices.Contains(types, e.Type) {
		v["type"] = "invalid_choice"
	}
	if e.Category == models.ExpenseVehicle && (e.VehicleID == nil || *e.VehicleID == "") {
		v["vehicle_id"] = "required"
	}
	if e.Amount.Valid {
		validation.NonNegativeDecimal("amount", e.Amount.Decimal, v)
	}
	if e.PaymentMethod != "" {
		validation.OneOf("payment_method", e.PaymentMethod, []models.PaymentMethod{
			models.PayCash, models.PayCheque, models.PayTransfer, models.PayCard,
		}, v)
	}
	return v.Err()
}

// ExpenseService records outgoing costs.
type ExpenseService struct {
	expenses *store.Collection[models.Expense]
}

func NewExpenseService(db *gorm.DB) *ExpenseService {
	return &ExpenseService{expenses: store.New[models.Expense](db)}
}

// Create validates and stores an expense.
func (s *ExpenseService) Create(ctx context.Context, e *models.Expense) error {
	if err := ValidateExpense(e); err != nil {
		return err
	}
	if _, err := s.expenses.Insert(ctx, e); err != nil {
		slog.Error("create expense", "error", err)
		return err
	}
	return nil
}

// Get returns the expense, or nil when missing.
func (s *ExpenseService) Get(ctx context.Context, id string) (*models.Expense, error) {
	return s.expenses.Get(ctx, id)
}

// Update merges p and validates the merged expense before writing.
func (s *ExpenseService) Update(ctx context.Context, id string, p models.ExpensePatch) (*models.Expense, error) {
	e, err := s.expenses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	p.Apply(e)
	if err := ValidateExpense(e); err != nil {
		return nil, err
	}
	if err := s.expenses.Update(ctx, id, p.Changes()); err != nil {
		slog.Error("update expense", "id", id, "error", err)
		return nil, err
	}
	return e, nil
}

// Delete removes an expense.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	err := s.expenses.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// List returns all expenses, latest first.
func (s *ExpenseService) List(ctx context.Context) ([]models.Expense, error) {
	return s.expenses.Query(ctx, store.Query{}.OrderDesc("date"))
}

// ByDateRange returns expenses dated within [from, to], latest first.
func (s *ExpenseService) ByDateRange(ctx context.Context, from, to time.Time) ([]models.Expense, error) {
	return s.expenses.Query(ctx, store.Where(store.Gte("date", from), store.Lte("date", to)).OrderDesc("date"))
}

// ByVehicle returns a vehicle's expenses, latest first.
func (s *ExpenseService) ByVehicle(ctx context.Context, vehicleID string) ([]models.Expense, error) {
	return s.expenses.Query(ctx, store.Where(store.Eq("vehicle_id", vehicleID)).OrderDesc("date"))
}
