package services

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
)

// DailyBucketLimit is the window length, in days, below which the revenue
// series uses daily buckets.
const DailyBucketLimit = 32

// TopN is the size of the top-performer rankings.
const TopN = 5

// DashboardFilter narrows the dashboard. Rentals are matched on start date,
// vehicle, client and brand; invoices on issue date and client.
type DashboardFilter struct {
	From      *time.Time
	To        *time.Time
	VehicleID string
	ClientID  string
	BrandID   string
}

// DashboardStats are the KPI tiles.
type DashboardStats struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	PendingRevenue      decimal.Decimal `json:"pending_revenue"`
	UnpaidAmount        decimal.Decimal `json:"unpaid_amount"`
	CashIn              decimal.Decimal `json:"cash_in"`
	ActiveRentals       int             `json:"active_rentals"`
	OccupancyRate       int             `json:"occupancy_rate"`
	AvgDailyRate        int64           `json:"avg_daily_rate"`
	AvgRentalDuration   int             `json:"avg_rental_duration"`
	TotalVehicles       int             `json:"total_vehicles"`
	AvailableVehicles   int             `json:"available_vehicles"`
	RentedVehicles      int             `json:"rented_vehicles"`
	MaintenanceVehicles int             `json:"maintenance_vehicles"`
}

// Granularity is the bucket size of a revenue series.
type Granularity string

const (
	Daily   Granularity = "day"
	Monthly Granularity = "month"
)

// Bucket is one point of the revenue series; it covers [Start, End).
type Bucket struct {
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"count"`
}

// RevenueSeries is invoice revenue over time.
type RevenueSeries struct {
	Granularity Granularity `json:"granularity"`
	Buckets     []Bucket    `json:"buckets"`
}

// BillingBreakdown counts filtered rentals per billing status.
type BillingBreakdown struct {
	Invoiced int `json:"invoiced"`
	Open     int `json:"open"`
}

// Performer is one entry of a top-performer ranking.
type Performer struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"count"`
}

// TopPerformers ranks vehicles and clients by rental revenue.
type TopPerformers struct {
	Vehicles []Performer `json:"vehicles"`
	Clients  []Performer `json:"clients"`
}

// Dashboard bundles every dashboard output computed from one read.
type Dashboard struct {
	Stats   DashboardStats   `json:"stats"`
	Revenue RevenueSeries    `json:"revenue"`
	Billing BillingBreakdown `json:"billing"`
	Top     TopPerformers    `json:"top"`
}

// DashboardService derives KPIs from rentals, invoices and the fleet.
type DashboardService struct {
	rentals  *store.Collection[models.Rental]
	invoices *store.Collection[models.Invoice]
	fleet    fleetReader
	now      Clock
}

// NewDashboardService returns a dashboard service. A nil clock uses time.Now.
func NewDashboardService(db *gorm.DB, now Clock) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		rentals:  store.New[models.Rental](db),
		invoices: store.New[models.Invoice](db),
		fleet:    newFleetReader(db),
		now:      now,
	}
}

type snapshot struct {
	now      time.Time
	rentals  []models.Rental
	invoices []models.Invoice
	fleet    *fleetIndex
}

// load reads rentals, invoices and the fleet in parallel.
func (s *DashboardService) load(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{now: s.now()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.rentals, err = s.rentals.All(gctx, "start_date")
		return
	})
	g.Go(func() (err error) {
		snap.invoices, err = s.invoices.All(gctx, "invoice_date")
		return
	})
	g.Go(func() (err error) {
		snap.fleet, err = s.fleet.load(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Overview computes every dashboard output from a single read.
func (s *DashboardService) Overview(ctx context.Context, f DashboardFilter) (*Dashboard, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Stats:   snap.stats(f),
		Revenue: snap.revenue(f),
		Billing: snap.billing(f),
		Top:     snap.top(f),
	}, nil
}

// Stats computes the KPI tiles.
func (s *DashboardService) Stats(ctx context.Context, f DashboardFilter) (DashboardStats, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	return snap.stats(f), nil
}

// Revenue computes the revenue series.
func (s *DashboardService) Revenue(ctx context.Context, f DashboardFilter) (RevenueSeries, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return RevenueSeries{}, err
	}
	return snap.revenue(f), nil
}

// Billing counts filtered rentals by billing status.
func (s *DashboardService) Billing(ctx context.Context, f DashboardFilter) (BillingBreakdown, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return BillingBreakdown{}, err
	}
	return snap.billing(f), nil
}

// Top ranks vehicles and clients by revenue.
func (s *DashboardService) Top(ctx context.Context, f DashboardFilter) (TopPerformers, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return TopPerformers{}, err
	}
	return snap.top(f), nil
}

func inRange(t time.Time, f DashboardFilter) bool {
	return (f.From == nil || !t.Before(*f.From)) && (f.To == nil || !t.After(*f.To))
}

func (snap *snapshot) filteredRentals(f DashboardFilter) []models.Rental {
	var out []models.Rental
	for _, r := range snap.rentals {
		if !inRange(r.StartDate, f) ||
			(f.VehicleID != "" && r.VehicleID != f.VehicleID) ||
			(f.ClientID != "" && r.ClientID != f.ClientID) ||
			(f.BrandID != "" && snap.fleet.brandID(r.VehicleID) != f.BrandID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (snap *snapshot) filteredInvoices(f DashboardFilter) []models.Invoice {
	var out []models.Invoice
	for _, inv := range snap.invoices {
		if !inRange(inv.InvoiceDate, f) || (f.ClientID != "" && inv.ClientID != f.ClientID) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// rentedVehicles returns the vehicles with an active rental, ignoring filters.
func (snap *snapshot) rentedVehicles() map[string]bool {
	rented := map[string]bool{}
	for _, r := range snap.rentals {
		if RentalStatusAt(r.StartDate, r.EndDate, snap.now) == models.RentalActive {
			rented[r.VehicleID] = true
		}
	}
	return rented
}

func (snap *snapshot) stats(f DashboardFilter) DashboardStats {
	var st DashboardStats
	st.TotalRevenue, st.UnpaidAmount, st.CashIn, st.PendingRevenue = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero

	for _, inv := range snap.filteredInvoices(f) {
		if inv.CountsAsRevenue() {
			st.TotalRevenue = st.TotalRevenue.Add(inv.TotalTTC)
		}
		if inv.Status == models.InvoiceValidated {
			st.UnpaidAmount = st.UnpaidAmount.Add(inv.RemainingAmount)
		}
		st.CashIn = st.CashIn.Add(inv.PaidAmount)
	}

	rentals := snap.filteredRentals(f)
	priceSum, daySum := decimal.Zero, 0
	for i := range rentals {
		r := &rentals[i]
		if IsBillable(r, snap.now) {
			st.PendingRevenue = st.PendingRevenue.Add(r.TotalTTC)
		}
		priceSum = priceSum.Add(r.UnitPriceHT)
		daySum += r.DayCount
	}
	if n := len(rentals); n > 0 {
		st.AvgDailyRate = priceSum.Div(decimal.NewFromInt(int64(n))).Round(0).IntPart()
		st.AvgRentalDuration = int(math.Round(float64(daySum) / float64(n)))
	}

	for _, r := range snap.rentals {
		if RentalStatusAt(r.StartDate, r.EndDate, snap.now) == models.RentalActive {
			st.ActiveRentals++
		}
	}
	fleet := snap.vehicleStatus()
	st.TotalVehicles = len(snap.fleet.vehicles)
	st.AvailableVehicles, st.RentedVehicles, st.MaintenanceVehicles = fleet.Available, fleet.Rented, fleet.Maintenance
	st.OccupancyRate = OccupancyRate(st.TotalVehicles, st.AvailableVehicles, st.MaintenanceVehicles)
	return st
}

// OccupancyRate is the rounded percentage of vehicles neither available nor
// in maintenance.
func OccupancyRate(total, available, maintenance int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(total-available-maintenance) / float64(total) * 100))
}

// VehicleStatus counts the fleet by availability.
type VehicleStatus struct {
	Available   int `json:"available"`
	Rented      int `json:"rented"`
	Maintenance int `json:"maintenance"`
}

func (snap *snapshot) vehicleStatus() VehicleStatus {
	rented := snap.rentedVehicles()
	var vs VehicleStatus
	for id, v := range snap.fleet.vehicles {
		switch {
		case !v.Active:
			vs.Maintenance++
		case rented[id]:
			vs.Rented++
		default:
			vs.Available++
		}
	}
	return vs
}

// Fleet counts vehicles by availability at the current instant.
func (s *DashboardService) Fleet(ctx context.Context) (VehicleStatus, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return VehicleStatus{}, err
	}
	return snap.vehicleStatus(), nil
}

func (snap *snapshot) billing(f DashboardFilter) BillingBreakdown {
	var b BillingBreakdown
	for _, r := range snap.filteredRentals(f) {
		switch r.BillingStatus {
		case models.BillingInvoiced:
			b.Invoiced++
		case models.BillingOpen:
			b.Open++
		}
	}
	return b
}

// SeriesWindow returns the revenue window for f: the filter bounds, or the
// six calendar months ending at now.
func SeriesWindow(f DashboardFilter, now time.Time) (start, end time.Time) {
	end = now
	if f.To != nil {
		end = *f.To
	}
	if f.From != nil {
		start = *f.From
	} else {
		y, m, _ := end.Date()
		start = time.Date(y, m-5, 1, 0, 0, 0, 0, end.Location())
	}
	return start, end
}

// Buckets splits [start, end] into calendar days, both ends included, when
// the window spans fewer than DailyBucketLimit days, or into calendar months
// otherwise.
func Buckets(start, end time.Time) (Granularity, []Bucket) {
	if end.Before(start) {
		start, end = end, start
	}
	loc := start.Location()
	end = end.In(loc)
	diff := end.Sub(start)
	days := int(diff / day)
	if diff%day != 0 {
		days++
	}
	var out []Bucket
	if days < DailyBucketLimit {
		for d := startOfDay(start); !d.After(end); d = d.AddDate(0, 0, 1) {
			out = append(out, Bucket{Start: d, End: d.AddDate(0, 0, 1), Revenue: decimal.Zero})
		}
		return Daily, out
	}
	y, m, _ := start.Date()
	for d := time.Date(y, m, 1, 0, 0, 0, 0, loc); !d.After(end); d = d.AddDate(0, 1, 0) {
		out = append(out, Bucket{Start: d, End: d.AddDate(0, 1, 0), Revenue: decimal.Zero})
	}
	return Monthly, out
}

func (snap *snapshot) revenue(f DashboardFilter) RevenueSeries {
	start, end := SeriesWindow(f, snap.now)
	gran, buckets := Buckets(start, end)
	for _, inv := range snap.filteredInvoices(f) {
		if inv.Status == models.InvoiceCancelled {
			continue
		}
		at := inv.InvoiceDate.In(start.Location())
		i, found := slices.BinarySearchFunc(buckets, at, func(b Bucket, t time.Time) int {
			switch {
			case t.Before(b.Start):
				return 1
			case !t.Before(b.End):
				return -1
			}
			return 0
		})
		if !found {
			continue
		}
		buckets[i].Revenue = buckets[i].Revenue.Add(inv.TotalTTC)
		buckets[i].Count++
	}
	return RevenueSeries{Granularity: gran, Buckets: buckets}
}

func (snap *snapshot) top(f DashboardFilter) TopPerformers {
	byVehicle := map[string]*Performer{}
	byClient := map[string]*Performer{}
	add := func(m map[string]*Performer, id string, amount decimal.Decimal) {
		if id == "" {
			return
		}
		p, ok := m[id]
		if !ok {
			p = &Performer{ID: id, Revenue: decimal.Zero}
			m[id] = p
		}
		p.Revenue = p.Revenue.Add(amount)
		p.Count++
	}
	for _, r := range snap.filteredRentals(f) {
		add(byVehicle, r.VehicleID, r.TotalTTC)
		add(byClient, r.ClientID, r.TotalTTC)
	}
	return TopPerformers{
		Vehicles: rank(byVehicle, snap.fleet.vehicleLabel),
		Clients:  rank(byClient, snap.fleet.clientName),
	}
}

// rank orders performers by revenue descending, then id ascending, and keeps
// the first TopN.
func rank(m map[string]*Performer, name func(string) string) []Performer {
	out := make([]Performer, 0, len(m))
	for _, p := range m {
		p.Name = name(p.ID)
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b Performer) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}
