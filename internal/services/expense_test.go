package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/validation"
)

func TestValidateExpense(t *testing.T) {
	vid := "v1"
	tests := []struct {
		name  string
		e     models.Expense
		field string
	}{
		{"ok fixed", models.Expense{Date: testNow, Category: models.ExpenseFixed, Type: "rent"}, ""},
		{"ok vehicle", models.Expense{Date: testNow, Category: models.ExpenseVehicle, Type: "fuel", VehicleID: &vid}, ""},
		{"missing date", models.Expense{Category: models.ExpenseFixed, Type: "rent"}, "date"},
		{"unknown category", models.Expense{Date: testNow, Category: "travel", Type: "rent"}, "category"},
		{"type from other category", models.Expense{Date: testNow, Category: models.ExpenseFixed, Type: "fuel"}, "type"},
		{"vehicle required", models.Expense{Date: testNow, Category: models.ExpenseVehicle, Type: "fuel"}, "vehicle_id"},
		{"negative amount", models.Expense{Date: testNow, Category: models.ExpenseMisc, Type: "other",
			Amount: decimal.NewNullDecimal(d("-5"))}, "amount"},
		{"bad method", models.Expense{Date: testNow, Category: models.ExpenseMisc, Type: "other", PaymentMethod: "iou"}, "payment_method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExpense(&tt.e)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var v validation.Violations
			require.ErrorAs(t, err, &v)
			assert.Contains(t, v, tt.field)
		})
	}
}

func TestExpenseService(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(setupServiceTestDB(t))
	vid := "v1"

	fuel := &models.Expense{Date: testNow, Category: models.ExpenseVehicle, Type: "fuel", VehicleID: &vid, Amount: decimal.NewNullDecimal(d("80.5"))}
	rent := &models.Expense{Date: testNow.AddDate(0, -1, 0), Category: models.ExpenseFixed, Type: "rent"}
	require.NoError(t, svc.Create(ctx, fuel))
	require.NoError(t, svc.Create(ctx, rent))

	got, err := svc.Get(ctx, rent.ID)
	require.NoError(t, err)
	assert.False(t, got.Amount.Valid, "amount is optional")

	byVehicle, err := svc.ByVehicle(ctx, vid)
	require.NoError(t, err)
	require.Len(t, byVehicle, 1)
	assertDec(t, "80.5", byVehicle[0].Amount.Decimal)

	recent, err := svc.ByDateRange(ctx, testNow.AddDate(0, 0, -7), testNow)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	misc := models.ExpenseMisc
	_, err = svc.Update(ctx, fuel.ID, models.ExpensePatch{Category: &misc})
	var v validation.Violations
	require.ErrorAs(t, err, &v, "fuel is not a misc type")

	other, empty := "other", ""
	updated, err := svc.Update(ctx, fuel.ID, models.ExpensePatch{Category: &misc, Type: &other, VehicleID: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.VehicleID)
	byVehicle, _ = svc.ByVehicle(ctx, vid)
	assert.Empty(t, byVehicle)

	_, err = svc.Update(ctx, "missing", models.ExpensePatch{})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, svc.Delete(ctx, rent.ID))
	assert.ErrorIs(t, svc.Delete(ctx, rent.ID), ErrNotFound)

	all, _ := svc.List(ctx)
	assert.Len(t, all, 1)
}
