package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
	"github.com/diewo77/go-rentals/validation"
)

const day = 24 * time.Hour

// Clock returns the current instant. Services take one so derived statuses
// can be tested at a fixed time.
type Clock func() time.Time

// ErrRentalNotFound is returned when a rental id does not exist.
var ErrRentalNotFound = errors.New("rental not found")

// RentalStatusAt derives the temporal status of a rental at now.
func RentalStatusAt(start, end, now time.Time) models.RentalStatus {
	switch {
	case now.Before(start):
		return models.RentalPlanned
	case now.After(end):
		return models.RentalCompleted
	default:
		return models.RentalActive
	}
}

// Duration returns the number of billed days: the absolute difference rounded
// up to whole days, at least 1.
func Duration(start, end time.Time) int {
	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	days := int(diff / day)
	if diff%day != 0 {
		days++
	}
	return max(days, 1)
}

// IsBillable reports whether r is completed at now and not yet invoiced.
func IsBillable(r *models.Rental, now time.Time) bool {
	return RentalStatusAt(r.StartDate, r.EndDate, now) == models.RentalCompleted &&
		r.BillingStatus == models.BillingOpen
}

// PriceRental sets DayCount, TotalHT and TotalTTC from the dates, unit price
// and VAT rate.
func PriceRental(r *models.Rental, vatRate decimal.Decimal) {
	r.DayCount = Duration(r.StartDate, r.EndDate)
	r.TotalHT = r.UnitPriceHT.Mul(decimal.NewFromInt(int64(r.DayCount)))
	r.TotalTTC = WithVAT(r.TotalHT, vatRate)
}

// RentalView is a rental with its status at read time.
type RentalView struct {
	models.Rental
	Status   models.RentalStatus `json:"status"`
	Billable bool                `json:"billable"`
}

// RentalService manages rental contracts.
type RentalService struct {
	rentals  *store.Collection[models.Rental]
	settings SettingsProvider
	now      Clock
}

// NewRentalService returns a rental service. A nil clock uses time.Now.
func NewRentalService(db *gorm.DB, settings SettingsProvider, now Clock) *RentalService {
	if now == nil {
		now = time.Now
	}
	return &RentalService{rentals: store.New[models.Rental](db), settings: settings, now: now}
}

func (s *RentalService) view(r models.Rental) RentalView {
	now := s.now()
	return RentalView{
		Rental:   r,
		Status:   RentalStatusAt(r.StartDate, r.EndDate, now),
		Billable: IsBillable(&r, now),
	}
}

func (s *RentalService) views(rs []models.Rental) []RentalView {
	out := make([]RentalView, len(rs))
	for i, r := range rs {
		out[i] = s.view(r)
	}
	return out
}

func validateRental(r *models.Rental) error {
	v := validation.Violations{}
	validation.Required("client_id", r.ClientID, v)
	validation.Required("vehicle_id", r.VehicleID, v)
	validation.RequiredTime("start_date", r.StartDate, v)
	validation.RequiredTime("end_date", r.EndDate, v)
	validation.NotBefore("end_date", r.StartDate, r.EndDate, v)
	validation.NonNegativeDecimal("unit_price_ht", r.UnitPriceHT, v)
	validation.RangeInt("fuel_out", r.FuelOut, 0, 100, v)
	if r.FuelIn != nil {
		validation.RangeInt("fuel_in", *r.FuelIn, 0, 100, v)
	}
	if r.MileageIn != nil && *r.MileageIn < r.MileageOut {
		v["mileage_in"] = "below_mileage_out"
	}
	if r.DepositType != "" {
		validation.OneOf("deposit_type", r.DepositType, []models.DepositType{
			models.DepositCash, models.DepositCheque, models.DepositCard, models.DepositTransfer,
		}, v)
	}
	return v.Err()
}

// Create prices and stores a new rental. Billing status always starts Open.
func (s *RentalService) Create(ctx context.Context, r *models.Rental) (RentalView, error) {
	if err := validateRental(r); err != nil {
		return RentalView{}, err
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return RentalView{}, err
	}
	r.ID = ""
	r.BillingStatus = models.BillingOpen
	PriceRental(r, cfg.VATRate)
	if _, err := s.rentals.Insert(ctx, r); err != nil {
		slog.Error("create rental", "error", err)
		return RentalView{}, err
	}
	return s.view(*r), nil
}

// Get returns the rental, or nil when missing.
func (s *RentalService) Get(ctx context.Context, id string) (*RentalView, error) {
	r, err := s.rentals.Get(ctx, id)
	if err != nil || r == nil {
		return nil, err
	}
	v := s.view(*r)
	return &v, nil
}

// Update merges p into the rental, repricing it when dates or price change.
func (s *RentalService) Update(ctx context.Context, id string, p models.RentalPatch) (RentalView, error) {
	r, err := s.rentals.Get(ctx, id)
	if err != nil {
		return RentalView{}, err
	}
	if r == nil {
		return RentalView{}, ErrRentalNotFound
	}
	p.Apply(r)
	if err := validateRental(r); err != nil {
		return RentalView{}, err
	}
	changes := p.Changes()
	if p.AffectsTotals() {
		cfg, err := s.settings.Get(ctx)
		if err != nil {
			return RentalView{}, err
		}
		PriceRental(r, cfg.VATRate)
		changes["day_count"] = r.DayCount
		changes["total_ht"] = r.TotalHT
		changes["total_ttc"] = r.TotalTTC
	}
	if err := s.rentals.Update(ctx, id, changes); err != nil {
		slog.Error("update rental", "id", id, "error", err)
		return RentalView{}, err
	}
	return s.view(*r), nil
}

// Delete removes a rental.
func (s *RentalService) Delete(ctx context.Context, id string) error {
	if err := s.rentals.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRentalNotFound
		}
		slog.Error("delete rental", "id", id, "error", err)
		return err
	}
	return nil
}

// List returns all rentals, latest start first.
func (s *RentalService) List(ctx context.Context) ([]RentalView, error) {
	rs, err := s.rentals.Query(ctx, store.Query{}.OrderDesc("start_date"))
	if err != nil {
		return nil, err
	}
	return s.views(rs), nil
}

// Overlapping returns rentals that intersect [from, to], ordered by start.
func (s *RentalService) Overlapping(ctx context.Context, from, to time.Time) ([]RentalView, error) {
	rs, err := s.rentals.Query(ctx, store.Where(
		store.Lte("start_date", to),
		store.Gte("end_date", from),
	).Order("start_date"))
	if err != nil {
		return nil, err
	}
	return s.views(rs), nil
}

// ByClientAndBillingStatus lists a client's rentals in the given billing status.
func (s *RentalService) ByClientAndBillingStatus(ctx context.Context, clientID string, status models.BillingStatus) ([]RentalView, error) {
	rs, err := s.rentals.Query(ctx, store.Where(
		store.Eq("client_id", clientID),
		store.Eq("billing_status", status),
	).OrderDesc("start_date"))
	if err != nil {
		return nil, err
	}
	return s.views(rs), nil
}

// Billable lists the client's rentals that can be invoiced now.
func (s *RentalService) Billable(ctx context.Context, clientID string) ([]RentalView, error) {
	open, err := s.ByClientAndBillingStatus(ctx, clientID, models.BillingOpen)
	if err != nil {
		return nil, err
	}
	out := open[:0]
	for _, r := range open {
		if r.Billable {
			out = append(out, r)
		}
	}
	return out, nil
}

// SetBillingStatus updates the billing status of each rental in ids.
func (s *RentalService) SetBillingStatus(ctx context.Context, ids []string, status models.BillingStatus) error {
	for _, id := range ids {
		if err := s.rentals.Update(ctx, id, map[string]any{"billing_status": status}); err != nil {
			slog.Error("set billing status", "rental", id, "status", status, "error", err)
			return fmt.Errorf("rental %s: %w", id, err)
		}
	}
	return nil
}
