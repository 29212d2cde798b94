package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
	"github.com/diewo77/go-rentals/validation"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrNoRentals       = errors.New("no rentals to invoice")
	ErrNotBillable     = errors.New("rental is not billable")
	ErrMixedClients    = errors.New("rental belongs to another client")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrDuplicateRental = errors.New("rental listed twice")
)

// NextInvoiceNumber returns "{year}-{5 digits}" following the highest
// sequence among existing numbers of that year. Numbers of other years and
// malformed numbers are ignored.
func NextInvoiceNumber(existing []string, now time.Time) string {
	prefix := strconv.Itoa(now.Year()) + "-"
	return fmt.Sprintf("%s%05d", prefix, maxSequence(existing, prefix)+1)
}

func maxSequence(numbers []string, prefix string) int {
	top := 0
	for _, n := range numbers {
		suffix, ok := strings.CutPrefix(n, prefix)
		if !ok {
			continue
		}
		seq, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		top = max(top, seq)
	}
	return top
}

// SettlementResult is the settlement state implied by a paid amount.
type SettlementResult struct {
	PaidAmount      decimal.Decimal         `json:"paid_amount"`
	RemainingAmount decimal.Decimal         `json:"remaining_amount"`
	Status          models.SettlementStatus `json:"settlement_status"`
}

// Settlement derives remaining amount and settlement status from the invoice
// total and the cumulative paid amount.
func Settlement(totalTTC, paid decimal.Decimal) SettlementResult {
	res := SettlementResult{PaidAmount: paid, RemainingAmount: totalTTC.Sub(paid)}
	switch {
	case paid.GreaterThanOrEqual(totalTTC):
		res.Status = models.Settled
	case paid.IsPositive():
		res.Status = models.PartiallySettled
	default:
		res.Status = models.Unsettled
	}
	return res
}

// InvoiceWithLines is an invoice header with its lines.
type InvoiceWithLines struct {
	models.Invoice
	Lines []models.InvoiceLine `json:"lines"`
}

// RentalInvoiceRequest selects the rentals to put on one invoice.
type RentalInvoiceRequest struct {
	ClientID        string          `json:"client_id"`
	RentalIDs       []string        `json:"rental_ids"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Notes           string          `json:"notes"`
}

// InvoiceService numbers, creates and settles invoices.
type InvoiceService struct {
	invoices    *store.Collection[models.Invoice]
	lines       *store.Collection[models.InvoiceLine]
	allocations *store.Collection[models.PaymentAllocation]
	rentals     *store.Collection[models.Rental]
	fleet       fleetReader
	settings    SettingsProvider
	now         Clock
}

// NewInvoiceService returns an invoice service. A nil clock uses time.Now.
func NewInvoiceService(db *gorm.DB, settings SettingsProvider, now Clock) *InvoiceService {
	if now == nil {
		now = time.Now
	}
	return &InvoiceService{
		invoices:    store.New[models.Invoice](db),
		lines:       store.New[models.InvoiceLine](db),
		allocations: store.New[models.PaymentAllocation](db),
		rentals:     store.New[models.Rental](db),
		fleet:       newFleetReader(db),
		settings:    settings,
		now:         now,
	}
}

// NextNumber computes the next invoice number from the stored ones. The
// number is not reserved; the unique index rejects a concurrent duplicate.
func (s *InvoiceService) NextNumber(ctx context.Context) (string, error) {
	now := s.now()
	last, err := s.invoices.Query(ctx, store.Where(
		store.Prefix("number", strconv.Itoa(now.Year())+"-"),
	).OrderDesc("number").Take(1))
	if err != nil {
		return "", err
	}
	existing := make([]string, len(last))
	for i, inv := range last {
		existing[i] = inv.Number
	}
	return NextInvoiceNumber(existing, now), nil
}

// Create writes a header and its lines. Settlement fields are reset to an
// unpaid state whatever the caller supplied. If a line cannot be written the
// header and the lines already written are removed.
func (s *InvoiceService) Create(ctx context.Context, header *models.Invoice, lines []models.InvoiceLine) (*InvoiceWithLines, error) {
	var undo store.Undo
	out, err := s.create(ctx, &undo, header, lines)
	if err != nil {
		return nil, undo.Fail(ctx, err)
	}
	return out, nil
}

func (s *InvoiceService) create(ctx context.Context, undo *store.Undo, header *models.Invoice, lines []models.InvoiceLine) (*InvoiceWithLines, error) {
	v := validation.Violations{}
	validation.Required("client_id", header.ClientID, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if header.Number == "" {
		n, err := s.NextNumber(ctx)
		if err != nil {
			return nil, err
		}
		header.Number = n
	}
	if header.InvoiceDate.IsZero() {
		header.InvoiceDate = s.now()
	}
	switch {
	case header.Status == "":
		header.Status = models.InvoiceDraft
	case !header.Status.Valid():
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, header.Status)
	}
	st := Settlement(header.TotalTTC, decimal.Zero)
	header.PaidAmount, header.RemainingAmount, header.SettlementStatus = st.PaidAmount, st.RemainingAmount, st.Status

	header.ID = ""
	id, err := store.Insert(ctx, undo, s.invoices, header)
	if err != nil {
		slog.Error("create invoice", "number", header.Number, "error", err)
		return nil, err
	}
	for i := range lines {
		lines[i].ID = ""
		lines[i].InvoiceID = id
		if lines[i].Position == 0 {
			lines[i].Position = i + 1
		}
		if _, err := store.Insert(ctx, undo, s.lines, &lines[i]); err != nil {
			slog.Error("create invoice line", "invoice", id, "line", i, "error", err)
			return nil, err
		}
	}
	slog.Info("invoice created", "id", id, "number", header.Number, "total_ttc", header.TotalTTC.String())
	return &InvoiceWithLines{Invoice: *header, Lines: lines}, nil
}

// InvoiceRentals puts completed, open rentals of one client on a new invoice
// and marks them invoiced.
func (s *InvoiceService) InvoiceRentals(ctx context.Context, req RentalInvoiceRequest) (*InvoiceWithLines, error) {
	if len(req.RentalIDs) == 0 {
		return nil, ErrNoRentals
	}
	v := validation.Violations{}
	validation.Required("client_id", req.ClientID, v)
	validation.RangeDecimal("discount_percent", req.DiscountPercent, decimal.Zero, hundred, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	rentals := make([]models.Rental, 0, len(req.RentalIDs))
	seen := make(map[string]bool, len(req.RentalIDs))
	for _, id := range req.RentalIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRental, id)
		}
		seen[id] = true
		r, err := s.rentals.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		switch {
		case r == nil:
			return nil, fmt.Errorf("%w: %s", ErrRentalNotFound, id)
		case r.ClientID != req.ClientID:
			return nil, fmt.Errorf("%w: %s", ErrMixedClients, id)
		case !IsBillable(r, now):
			return nil, fmt.Errorf("%w: %s", ErrNotBillable, id)
		}
		rentals = append(rentals, *r)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	ix, err := s.fleet.load(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]models.InvoiceLine, len(rentals))
	priced := make([]LineTotal, len(rentals))
	for i, r := range rentals {
		qty := decimal.NewFromInt(int64(r.DayCount))
		priced[i] = ComputeLineTotal(r.UnitPriceHT, qty, req.DiscountPercent)
		start, end := r.StartDate, r.EndDate
		lines[i] = models.InvoiceLine{
			RentalID:            r.ID,
			Description:         "Location " + ix.brandModel(r.VehicleID),
			PeriodStart:         &start,
			PeriodEnd:           &end,
			VehicleRegistration: ix.vehicles[r.VehicleID].Registration,
			VehicleLabel:        ix.vehicleLabel(r.VehicleID),
			Quantity:            qty,
			UnitPriceHT:         r.UnitPriceHT,
			DiscountPercent:     req.DiscountPercent,
			DiscountAmount:      priced[i].DiscountAmount,
			TotalHT:             priced[i].TotalHT,
			Position:            i + 1,
		}
	}
	totals := ComputeInvoiceTotals(priced, cfg.VATRate, cfg.StampDuty)

	client := ix.clients[req.ClientID]
	header := &models.Invoice{
		InvoiceDate:    req.InvoiceDate,
		RentalIDs:      datatypes.NewJSONSlice(req.RentalIDs),
		ClientID:       req.ClientID,
		ClientName:     ix.clientName(req.ClientID),
		ClientTaxID:    client.FiscalID(),
		SubtotalHT:     totals.SubtotalHT,
		DiscountAmount: totals.DiscountAmount,
		TaxableAmount:  totals.TaxableAmount,
		VATRate:        cfg.VATRate,
		VATAmount:      totals.VATAmount,
		StampDuty:      cfg.StampDuty,
		TotalTTC:       totals.TotalTTC,
		Notes:          req.Notes,
	}

	var undo store.Undo
	out, err := s.create(ctx, &undo, header, lines)
	if err != nil {
		return nil, undo.Fail(ctx, err)
	}
	for _, id := range req.RentalIDs {
		if err := s.rentals.Update(ctx, id, map[string]any{"billing_status": models.BillingInvoiced}); err != nil {
			slog.Error("mark rental invoiced", "rental", id, "invoice", out.ID, "error", err)
			return nil, undo.Fail(ctx, err)
		}
		undo.Push(func(ctx context.Context) error {
			return s.rentals.Update(ctx, id, map[string]any{"billing_status": models.BillingOpen})
		})
	}
	return out, nil
}

// Get returns the invoice, or nil when missing.
func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	return s.invoices.Get(ctx, id)
}

// GetWithLines returns the invoice and its lines, or nil when missing.
func (s *InvoiceService) GetWithLines(ctx context.Context, id string) (*InvoiceWithLines, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil || inv == nil {
		return nil, err
	}
	lines, err := s.Lines(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InvoiceWithLines{Invoice: *inv, Lines: lines}, nil
}

// Lines returns the lines of an invoice in position order.
func (s *InvoiceService) Lines(ctx context.Context, invoiceID string) ([]models.InvoiceLine, error) {
	return s.lines.Query(ctx, store.Where(store.Eq("invoice_id", invoiceID)).Order("position"))
}

// List returns every invoice, latest first.
func (s *InvoiceService) List(ctx context.Context) ([]models.Invoice, error) {
	return s.invoices.Query(ctx, store.Query{}.OrderDesc("invoice_date"))
}

// Unpaid returns non-cancelled invoices that are unsettled or partially
// settled, optionally for one client, latest first.
func (s *InvoiceService) Unpaid(ctx context.Context, clientID string) ([]models.Invoice, error) {
	filters := []store.Filter{
		store.In("settlement_status", []models.SettlementStatus{models.Unsettled, models.PartiallySettled}),
		store.Neq("status", models.InvoiceCancelled),
	}
	if clientID != "" {
		filters = append(filters, store.Eq("client_id", clientID))
	}
	return s.invoices.Query(ctx, store.Where(filters...).OrderDesc("invoice_date"))
}

// PartiallySettled returns partially settled invoices, optionally for one client.
func (s *InvoiceService) PartiallySettled(ctx context.Context, clientID string) ([]models.Invoice, error) {
	filters := []store.Filter{store.Eq("settlement_status", models.PartiallySettled)}
	if clientID != "" {
		filters = append(filters, store.Eq("client_id", clientID))
	}
	return s.invoices.Query(ctx, store.Where(filters...).OrderDesc("invoice_date"))
}

// Validate moves the invoice to Validated and stamps the validation time.
// Validating twice stamps again.
func (s *InvoiceService) Validate(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, map[string]any{
		"status":       models.InvoiceValidated,
		"validated_at": s.now(),
	})
}

// Cancel moves the invoice to Cancelled from any status. Its rentals stay
// invoiced.
func (s *InvoiceService) Cancel(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, map[string]any{"status": models.InvoiceCancelled})
}

// Update applies editable header fields.
func (s *InvoiceService) Update(ctx context.Context, id string, p models.InvoicePatch) error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	changes := p.Changes()
	if p.Status != nil && *p.Status == models.InvoiceValidated {
		changes["validated_at"] = s.now()
	}
	return s.setStatus(ctx, id, changes)
}

func (s *InvoiceService) setStatus(ctx context.Context, id string, changes map[string]any) error {
	if err := s.invoices.Update(ctx, id, changes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvoiceNotFound
		}
		slog.Error("update invoice", "id", id, "error", err)
		return err
	}
	return nil
}

// RecomputeSettlement stores the settlement implied by paid. A missing
// invoice is logged and yields nil.
func (s *InvoiceService) RecomputeSettlement(ctx context.Context, invoiceID string, paid decimal.Decimal) (*SettlementResult, error) {
	inv, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		slog.Warn("settlement recompute on missing invoice", "invoice", invoiceID)
		return nil, nil
	}
	res := Settlement(inv.TotalTTC, paid)
	err = s.invoices.Update(ctx, invoiceID, map[string]any{
		"paid_amount":       res.PaidAmount,
		"remaining_amount":  res.RemainingAmount,
		"settlement_status": res.Status,
	})
	if err != nil {
		slog.Error("recompute settlement", "invoice", invoiceID, "error", err)
		return nil, err
	}
	return &res, nil
}

// PaidFromAllocations sums every allocation recorded against the invoice.
func (s *InvoiceService) PaidFromAllocations(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	allocs, err := s.allocations.Query(ctx, store.Where(store.Eq("invoice_id", invoiceID)))
	if err != nil {
		return decimal.Zero, err
	}
	paid := decimal.Zero
	for _, a := range allocs {
		paid = paid.Add(a.Amount)
	}
	return paid, nil
}

// SyncSettlement recomputes the invoice settlement from its allocations.
// Running it again with no new allocation leaves the invoice unchanged.
func (s *InvoiceService) SyncSettlement(ctx context.Context, invoiceID string) (*SettlementResult, error) {
	paid, err := s.PaidFromAllocations(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.RecomputeSettlement(ctx, invoiceID, paid)
}
