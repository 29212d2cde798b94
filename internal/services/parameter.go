package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
	"github.com/diewo77/go-rentals/validation"
)

// ErrGeneralConfig is returned when general_config rows are edited as plain
// parameters; they go through SettingsCache.Update.
var ErrGeneralConfig = errors.New("general_config rows are managed by settings")

var listTypes = []models.ParameterType{
	models.ParamDepositType, models.ParamAnomalyType, models.ParamPaymentMethod,
	models.ParamExpenseCategory, models.ParamExpenseType,
}

// ParameterService manages the configurable enumerations.
type ParameterService struct {
	params *store.Collection[models.Parameter]
}

func NewParameterService(db *gorm.DB) *ParameterService {
	return &ParameterService{params: store.New[models.Parameter](db)}
}

// ByType returns the entries of one list in display order.
func (s *ParameterService) ByType(ctx context.Context, t models.ParameterType) ([]models.Parameter, error) {
	return s.params.Query(ctx, store.Where(store.Eq("type", t)).Order("sort_order"))
}

// ExpenseTypes returns the expense types of a category in display order.
func (s *ParameterService) ExpenseTypes(ctx context.Context, category models.ExpenseCategory) ([]models.Parameter, error) {
	return s.params.Query(ctx, store.Where(
		store.Eq("type", models.ParamExpenseType),
		store.Eq("parent_value", string(category)),
	).Order("sort_order"))
}

// Create adds an entry to a list.
func (s *ParameterService) Create(ctx context.Context, p *models.Parameter) error {
	v := validation.Violations{}
	if p.Type == models.ParamGeneralConfig {
		return ErrGeneralConfig
	}
	validation.OneOf("type", p.Type, listTypes, v)
	validation.Required("value", p.Value, v)
	validation.Required("label", p.Label, v)
	if p.Type == models.ParamExpenseType {
		validation.Required("parent_value", p.ParentValue, v)
	}
	if err := v.Err(); err != nil {
		return err
	}
	p.Active = true
	if _, err := s.params.Insert(ctx, p); err != nil {
		slog.Error("create parameter", "type", p.Type, "error", err)
		return err
	}
	return nil
}

func (s *ParameterService) editable(ctx context.Context, id string) error {
	p, err := s.params.Get(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if p.Type == models.ParamGeneralConfig {
		return ErrGeneralConfig
	}
	return nil
}

// Update edits one entry.
func (s *ParameterService) Update(ctx context.Context, id string, patch models.ParameterPatch) error {
	if err := s.editable(ctx, id); err != nil {
		return err
	}
	if err := s.params.Update(ctx, id, patch.Changes()); err != nil {
		return fmt.Errorf("update parameter: %w", err)
	}
	return nil
}

// Delete removes one entry.
func (s *ParameterService) Delete(ctx context.Context, id string) error {
	if err := s.editable(ctx, id); err != nil {
		return err
	}
	return s.params.Delete(ctx, id)
}
