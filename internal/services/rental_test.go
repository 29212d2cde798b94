package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/validation"
)

func TestRentalStatusAt(t *testing.T) {
	now := testNow
	tests := []struct {
		name       string
		start, end time.Time
		want       models.RentalStatus
	}{
		{"active", now.Add(-day), now.Add(day), models.RentalActive},
		{"planned", now.Add(day), now.Add(2 * day), models.RentalPlanned},
		{"completed", now.Add(-2 * day), now.Add(-day), models.RentalCompleted},
		{"starts now", now, now.Add(day), models.RentalActive},
		{"ends now", now.Add(-day), now, models.RentalActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RentalStatusAt(tt.start, tt.end, now))
		})
	}
}

func TestDuration(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"same instant", start, 1},
		{"same day", start.Add(5 * time.Hour), 1},
		{"exactly one day", start.Add(day), 1},
		{"one day and a minute", start.Add(day + time.Minute), 2},
		{"three days", start.Add(3 * day), 3},
		{"reversed", start.Add(-2*day - time.Hour), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Duration(start, tt.end)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 1)
		})
	}
}

func TestPriceRental(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	r := models.Rental{StartDate: start, EndDate: start.Add(3 * day), UnitPriceHT: decimal.NewFromInt(100)}
	PriceRental(&r, decimal.NewFromInt(19))
	assert.Equal(t, 3, r.DayCount)
	assertDec(t, "300", r.TotalHT)
	assertDec(t, "357", r.TotalTTC)
	assert.True(t, r.UnitPriceHT.Mul(decimal.NewFromInt(int64(r.DayCount))).Equal(r.TotalHT))
}

func TestIsBillable(t *testing.T) {
	past := newRental("c", "v", testNow.Add(-3*day), testNow.Add(-day), 50)
	assert.True(t, IsBillable(&past, testNow))

	past.BillingStatus = models.BillingInvoiced
	assert.False(t, IsBillable(&past, testNow))

	running := newRental("c", "v", testNow.Add(-day), testNow.Add(day), 50)
	assert.False(t, IsBillable(&running, testNow))
}

func TestRentalService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	svc := NewRentalService(db, Static(DefaultSettings()), fixedClock(testNow))

	start := testNow.Add(-5 * day)
	r := &models.Rental{
		ClientID: "c1", VehicleID: "v1",
		StartDate: start, EndDate: start.Add(3 * day),
		UnitPriceHT:   decimal.NewFromInt(100),
		BillingStatus: models.BillingInvoiced,
		FuelOut:       80,
	}
	r.ID = "chosen-by-caller"
	view, err := svc.Create(ctx, r)
	require.NoError(t, err)
	assert.NotEqual(t, "chosen-by-caller", view.ID, "ids are assigned on insert")
	assert.Equal(t, models.BillingOpen, view.BillingStatus, "new rentals always start open")
	assert.Equal(t, models.RentalCompleted, view.Status)
	assert.True(t, view.Billable)
	assertDec(t, "357", view.TotalTTC)

	end := start.Add(4 * day)
	view, err = svc.Update(ctx, view.ID, models.RentalPatch{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, 4, view.DayCount)
	assertDec(t, "400", view.TotalHT)
	assertDec(t, "476", view.TotalTTC)

	stored, err := svc.Get(ctx, view.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 4, stored.DayCount)
	assertDec(t, "476", stored.TotalTTC)
	assert.Equal(t, 80, stored.FuelOut)
}

func TestRentalService_Validation(t *testing.T) {
	svc := NewRentalService(setupServiceTestDB(t), Static(DefaultSettings()), fixedClock(testNow))
	fuel := 120
	_, err := svc.Create(context.Background(), &models.Rental{
		StartDate: testNow, EndDate: testNow.Add(-day), FuelIn: &fuel,
	})
	var v validation.Violations
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "required", v["client_id"])
	assert.Equal(t, "before_start", v["end_date"])
	assert.Equal(t, "out_of_range", v["fuel_in"])
}

func TestRentalService_Queries(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	svc := NewRentalService(db, Static(DefaultSettings()), fixedClock(testNow))

	done := newRental("c1", "v1", testNow.Add(-10*day), testNow.Add(-8*day), 80)
	running := newRental("c1", "v2", testNow.Add(-day), testNow.Add(day), 80)
	other := newRental("c2", "v1", testNow.Add(-6*day), testNow.Add(-4*day), 80)
	for _, r := range []*models.Rental{&done, &running, &other} {
		mustCreate(t, db, r)
	}

	billable, err := svc.Billable(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, billable, 1)
	assert.Equal(t, done.ID, billable[0].ID)

	overlap, err := svc.Overlapping(ctx, testNow.Add(-7*day), testNow.Add(-5*day))
	require.NoError(t, err)
	require.Len(t, overlap, 1)
	assert.Equal(t, other.ID, overlap[0].ID)

	require.NoError(t, svc.SetBillingStatus(ctx, []string{done.ID}, models.BillingInvoiced))
	open, err := svc.ByClientAndBillingStatus(ctx, "c1", models.BillingOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, running.ID, open[0].ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, running.ID, all[0].ID, "latest start first")

	assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrRentalNotFound)
}
