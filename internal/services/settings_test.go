package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/validation"
)

func TestSettings_RoundAndFormat(t *testing.T) {
	s := DefaultSettings()
	assertDec(t, "178.5", s.Round(d("178.4999")))
	assert.Equal(t, "358.000 TND", s.Format(d("358")))
	assert.Equal(t, "0.125 TND", s.Format(d("0.1245")))

	s.Decimals, s.Currency = 2, "EUR"
	assert.Equal(t, "10.50 EUR", s.Format(d("10.5")))
}

func TestSettingsCache(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	cache := NewSettingsCache(db)

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), got, "no rows yields defaults")

	mustCreate(t, db, &models.Parameter{Type: models.ParamGeneralConfig, Key: KeyVATRate, Label: "VAT", Value: "7", Active: true})
	got, _ = cache.Get(ctx)
	assertDec(t, "19", got.VATRate, "cached until reload")

	got, err = cache.Reload(ctx)
	require.NoError(t, err)
	assertDec(t, "7", got.VATRate)

	got, err = cache.Update(ctx, SettingsPatch{VATRate: ptr(d("13")), StampDuty: ptr(d("0.600")), Decimals: ptr(int32(2))})
	require.NoError(t, err)
	assertDec(t, "13", got.VATRate)
	assertDec(t, "0.6", got.StampDuty)
	assert.Equal(t, int32(2), got.Decimals)

	var rows []models.Parameter
	require.NoError(t, db.Where("type = ?", models.ParamGeneralConfig).Find(&rows).Error)
	assert.Len(t, rows, 3, "existing vat row updated in place")

	_, err = cache.Update(ctx, SettingsPatch{VATRate: ptr(d("120")), Decimals: ptr(int32(9))})
	var v validation.Violations
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v, KeyVATRate)
	assert.Contains(t, v, KeyDecimals)
}

func TestSettingsFromRows_IgnoresBadValues(t *testing.T) {
	s := settingsFromRows([]models.Parameter{
		{Key: KeyDecimals, Value: "-1"},
		{Key: KeyVATRate, Value: "abc"},
		{Key: KeyCurrency, Value: "EUR"},
	})
	assert.Equal(t, int32(3), s.Decimals)
	assertDec(t, "19", s.VATRate)
	assert.Equal(t, "EUR", s.Currency)
}

func TestParameterService(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	svc := NewParameterService(db)

	require.NoError(t, svc.Create(ctx, &models.Parameter{Type: models.ParamExpenseType, Value: "fuel", Label: "Fuel", ParentValue: "vehicle", Order: 2}))
	require.NoError(t, svc.Create(ctx, &models.Parameter{Type: models.ParamExpenseType, Value: "tires", Label: "Tires", ParentValue: "vehicle", Order: 1}))
	require.NoError(t, svc.Create(ctx, &models.Parameter{Type: models.ParamExpenseType, Value: "rent", Label: "Rent", ParentValue: "fixed"}))

	var v validation.Violations
	require.ErrorAs(t, svc.Create(ctx, &models.Parameter{Type: models.ParamExpenseType, Value: "x", Label: "X"}), &v)
	assert.Contains(t, v, "parent_value")
	assert.ErrorIs(t, svc.Create(ctx, &models.Parameter{Type: models.ParamGeneralConfig, Key: "k", Value: "1"}), ErrGeneralConfig)

	types, err := svc.ExpenseTypes(ctx, models.ExpenseVehicle)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "tires", types[0].Value)
	assert.True(t, types[0].Active)

	require.NoError(t, svc.Update(ctx, types[0].ID, models.ParameterPatch{Label: ptr("Tyres")}))
	require.NoError(t, svc.Delete(ctx, types[1].ID))
	types, _ = svc.ByType(ctx, models.ParamExpenseType)
	assert.Len(t, types, 2)

	cfg := models.Parameter{Type: models.ParamGeneralConfig, Key: KeyCurrency, Value: "TND", Active: true}
	mustCreate(t, db, &cfg)
	assert.ErrorIs(t, svc.Update(ctx, cfg.ID, models.ParameterPatch{Value: ptr("EUR")}), ErrGeneralConfig)
	assert.ErrorIs(t, svc.Delete(ctx, cfg.ID), ErrGeneralConfig)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrNotFound)
}
