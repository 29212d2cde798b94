package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
)

func TestBuckets(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		end   time.Time
		gran  Granularity
		count int
		first time.Time
	}{
		{"ten days is daily with both ends", start.AddDate(0, 0, 10), Daily, 11, start},
		{"same day", start.Add(5 * time.Hour), Daily, 1, start},
		{"31 days stays daily", start.AddDate(0, 0, 31), Daily, 32, start},
		{"32 days is monthly", start.AddDate(0, 0, 32), Monthly, 2, start},
		{"ninety days is monthly", start.AddDate(0, 0, 90), Monthly, 3, start},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gran, buckets := Buckets(start, tt.end)
			assert.Equal(t, tt.gran, gran)
			require.Len(t, buckets, tt.count)
			assert.True(t, buckets[0].Start.Equal(tt.first))
			for i := 1; i < len(buckets); i++ {
				assert.True(t, buckets[i].Start.Equal(buckets[i-1].End), "buckets are contiguous")
			}
		})
	}

	_, buckets := Buckets(time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	assert.True(t, buckets[0].Start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)), "monthly starts on the 1st")
}

func TestSeriesWindow(t *testing.T) {
	start, end := SeriesWindow(DashboardFilter{}, testNow)
	assert.True(t, end.Equal(testNow))
	assert.True(t, start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	jan := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	start, _ = SeriesWindow(DashboardFilter{To: &jan}, testNow)
	assert.True(t, start.Equal(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)), "crosses the year")

	from := testNow.AddDate(0, 0, -3)
	start, _ = SeriesWindow(DashboardFilter{From: &from}, testNow)
	assert.True(t, start.Equal(from))
}

func TestOccupancyRate(t *testing.T) {
	assert.Equal(t, 0, OccupancyRate(0, 0, 0))
	assert.Equal(t, 33, OccupancyRate(3, 1, 1))
	assert.Equal(t, 67, OccupancyRate(3, 1, 0))
	assert.Equal(t, 100, OccupancyRate(4, 0, 0))
}

func TestRankTieBreak(t *testing.T) {
	m := map[string]*Performer{}
	for _, id := range []string{"f", "c", "a", "e", "b", "d", "g"} {
		m[id] = &Performer{ID: id, Revenue: decimal.NewFromInt(10)}
	}
	m["g"].Revenue = decimal.NewFromInt(50)
	out := rank(m, func(id string) string { return "name-" + id })
	ids := make([]string, len(out))
	for i, p := range out {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"g", "a", "b", "c", "d"}, ids)
	assert.Equal(t, "name-g", out[0].Name)
}

type dashboardFixture struct {
	fleetFixture
	spare, broken models.Vehicle
	otherBrand    models.Brand
}

func seedDashboard(t *testing.T, db *gorm.DB) dashboardFixture {
	t.Helper()
	fx := dashboardFixture{fleetFixture: seedFleet(t, db)}
	fx.otherBrand = models.Brand{Name: "Peugeot"}
	mustCreate(t, db, &fx.otherBrand)
	m := models.VehicleModel{Name: "208", BrandID: fx.otherBrand.ID}
	mustCreate(t, db, &m)
	fx.spare = models.Vehicle{ModelID: m.ID, Registration: "200 TU 1", Active: true}
	fx.broken = models.Vehicle{ModelID: m.ID, Registration: "200 TU 2", Active: false}
	mustCreate(t, db, &fx.spare)
	mustCreate(t, db, &fx.broken)

	active := newRental(fx.client.ID, fx.vehicle.ID, testNow.Add(-day), testNow.Add(day), 100)
	open := newRental(fx.client.ID, fx.spare.ID, testNow.AddDate(0, 0, -10), testNow.AddDate(0, 0, -7), 50)
	billed := newRental(fx.client.ID, fx.spare.ID, testNow.AddDate(0, 0, -20), testNow.AddDate(0, 0, -18), 80)
	billed.BillingStatus = models.BillingInvoiced
	for _, r := range []*models.Rental{&active, &open, &billed} {
		mustCreate(t, db, r)
	}

	invoices := []models.Invoice{
		{Number: "2025-00001", ClientID: fx.client.ID, InvoiceDate: testNow.AddDate(0, 0, -2), Status: models.InvoiceValidated,
			TotalTTC: d("358"), PaidAmount: d("200"), RemainingAmount: d("158"), SettlementStatus: models.PartiallySettled},
		{Number: "2025-00002", ClientID: fx.client.ID, InvoiceDate: testNow.AddDate(0, 0, -40), Status: models.InvoiceDraft,
			TotalTTC: d("100"), RemainingAmount: d("100"), SettlementStatus: models.Unsettled},
		{Number: "2025-00003", ClientID: "someone-else", InvoiceDate: testNow.AddDate(0, -2, 0), Status: models.InvoicePaid,
			TotalTTC: d("40"), PaidAmount: d("40"), SettlementStatus: models.Settled},
		{Number: "2025-00004", ClientID: fx.client.ID, InvoiceDate: testNow, Status: models.InvoiceCancelled,
			TotalTTC: d("50"), RemainingAmount: d("50"), SettlementStatus: models.Unsettled},
	}
	for i := range invoices {
		mustCreate(t, db, &invoices[i])
	}
	return fx
}

func TestDashboardService_Stats(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	seedDashboard(t, db)
	svc := NewDashboardService(db, fixedClock(testNow))

	st, err := svc.Stats(ctx, DashboardFilter{})
	require.NoError(t, err)
	assertDec(t, "398", st.TotalRevenue)
	assertDec(t, "178.5", st.PendingRevenue)
	assertDec(t, "158", st.UnpaidAmount)
	assertDec(t, "240", st.CashIn)
	assert.Equal(t, 1, st.ActiveRentals)
	assert.Equal(t, 3, st.TotalVehicles)
	assert.Equal(t, 1, st.AvailableVehicles)
	assert.Equal(t, 1, st.RentedVehicles)
	assert.Equal(t, 1, st.MaintenanceVehicles)
	assert.Equal(t, 33, st.OccupancyRate)
	assert.Equal(t, int64(77), st.AvgDailyRate)
	assert.Equal(t, 2, st.AvgRentalDuration)
}

func TestDashboardService_Filters(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	fx := seedDashboard(t, db)
	svc := NewDashboardService(db, fixedClock(testNow))

	st, err := svc.Stats(ctx, DashboardFilter{BrandID: fx.otherBrand.ID})
	require.NoError(t, err)
	assertDec(t, "178.5", st.PendingRevenue)
	assert.Equal(t, int64(65), st.AvgDailyRate)
	assertDec(t, "398", st.TotalRevenue, "brand does not filter invoices")

	from := testNow.AddDate(0, 0, -5)
	st, err = svc.Stats(ctx, DashboardFilter{From: &from})
	require.NoError(t, err)
	assertDec(t, "358", st.TotalRevenue)
	assertDec(t, "0", st.PendingRevenue)
	assert.Equal(t, 1, st.ActiveRentals, "active count ignores filters")

	st, err = svc.Stats(ctx, DashboardFilter{ClientID: "someone-else"})
	require.NoError(t, err)
	assertDec(t, "40", st.TotalRevenue)
	assert.Equal(t, int64(0), st.AvgDailyRate)

	b, err := svc.Billing(ctx, DashboardFilter{VehicleID: fx.spare.ID})
	require.NoError(t, err)
	assert.Equal(t, BillingBreakdown{Invoiced: 1, Open: 1}, b)
}

func TestDashboardService_RevenueSeries(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	seedDashboard(t, db)
	svc := NewDashboardService(db, fixedClock(testNow))

	series, err := svc.Revenue(ctx, DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, Monthly, series.Granularity)
	require.Len(t, series.Buckets, 6)
	assertDec(t, "0", series.Buckets[0].Revenue)
	assertDec(t, "40", series.Buckets[3].Revenue)
	assertDec(t, "100", series.Buckets[4].Revenue)
	assertDec(t, "358", series.Buckets[5].Revenue, "cancelled invoice excluded")
	assert.Equal(t, 1, series.Buckets[5].Count)

	from, to := testNow.AddDate(0, 0, -9), testNow
	series, err = svc.Revenue(ctx, DashboardFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, Daily, series.Granularity)
	require.Len(t, series.Buckets, 10)
	assertDec(t, "358", series.Buckets[7].Revenue)
}

func TestDashboardService_Overview(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	fx := seedDashboard(t, db)
	svc := NewDashboardService(db, fixedClock(testNow))

	out, err := svc.Overview(ctx, DashboardFilter{})
	require.NoError(t, err)
	require.Len(t, out.Top.Vehicles, 2)
	assert.Equal(t, fx.spare.ID, out.Top.Vehicles[0].ID)
	assertDec(t, "368.9", out.Top.Vehicles[0].Revenue)
	assert.Equal(t, 2, out.Top.Vehicles[0].Count)
	assert.Equal(t, "Peugeot 208 (200 TU 1)", out.Top.Vehicles[0].Name)
	require.Len(t, out.Top.Clients, 1)
	assert.Equal(t, "Ben Ali Sami", out.Top.Clients[0].Name)
	assertDec(t, "606.9", out.Top.Clients[0].Revenue)
	assert.Equal(t, BillingBreakdown{Invoiced: 1, Open: 2}, out.Billing)

	fleet, err := svc.Fleet(ctx)
	require.NoError(t, err)
	assert.Equal(t, VehicleStatus{Available: 1, Rented: 1, Maintenance: 1}, fleet)
}
