package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
	"github.com/diewo77/go-rentals/validation"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentLineNotFound = errors.New("payment line not found")
)

// NextPaymentNumber returns "REG{year}-{4 digits}" following the highest
// sequence among existing numbers of that year.
func NextPaymentNumber(existing []string, now time.Time) string {
	prefix := "REG" + strconv.Itoa(now.Year()) + "-"
	return fmt.Sprintf("%s%04d", prefix, maxSequence(existing, prefix)+1)
}

// PaymentInput is a payment with the full sets of lines and allocations.
type PaymentInput struct {
	Payment     models.Payment             `json:"payment"`
	Lines       []models.PaymentLine       `json:"lines"`
	Allocations []models.PaymentAllocation `json:"allocations"`
}

// Validate checks the payment and its children. Allocation and line sums
// differing from the declared total are only logged.
func (in *PaymentInput) Validate() error {
	v := validation.Violations{}
	validation.Required("client_id", in.Payment.ClientID, v)
	validation.PositiveDecimal("total_amount", in.Payment.TotalAmount, v)
	if len(in.Lines) == 0 {
		v["lines"] = "required"
	}
	for i, l := range in.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if !l.Instrument.Valid() {
			v[field+".instrument"] = "invalid_choice"
		}
		validation.PositiveDecimal(field+".amount", l.Amount, v)
		if l.Status != "" && !l.Status.Valid() {
			v[field+".status"] = "invalid_choice"
		}
	}
	for i, a := range in.Allocations {
		field := fmt.Sprintf("allocations[%d]", i)
		validation.Required(field+".invoice_id", a.InvoiceID, v)
		validation.PositiveDecimal(field+".amount", a.Amount, v)
	}
	return v.Err()
}

// Mismatches reports line and allocation totals that differ from the
// declared payment total.
func (in *PaymentInput) Mismatches() (lines, allocations bool) {
	lineSum, allocSum := decimal.Zero, decimal.Zero
	for _, l := range in.Lines {
		lineSum = lineSum.Add(l.Amount)
	}
	for _, a := range in.Allocations {
		allocSum = allocSum.Add(a.Amount)
	}
	total := in.Payment.TotalAmount
	return !lineSum.Equal(total), len(in.Allocations) > 0 && !allocSum.Equal(total)
}

func (in *PaymentInput) invoiceIDs() []string {
	seen := map[string]bool{}
	var ids []string
	for _, a := range in.Allocations {
		if !seen[a.InvoiceID] {
			seen[a.InvoiceID] = true
			ids = append(ids, a.InvoiceID)
		}
	}
	return ids
}

// PaymentDetails is a payment with its lines and allocations.
type PaymentDetails struct {
	models.Payment
	Lines       []models.PaymentLine       `json:"lines"`
	Allocations []models.PaymentAllocation `json:"allocations"`
}

// PaymentService records payments and their allocation to invoices.
type PaymentService struct {
	payments    *store.Collection[models.Payment]
	lines       *store.Collection[models.PaymentLine]
	allocations *store.Collection[models.PaymentAllocation]
	invoices    *InvoiceService
	now         Clock
}

// NewPaymentService returns a payment service. A nil clock uses time.Now.
func NewPaymentService(db *gorm.DB, invoices *InvoiceService, now Clock) *PaymentService {
	if now == nil {
		now = time.Now
	}
	return &PaymentService{
		payments:    store.New[models.Payment](db),
		lines:       store.New[models.PaymentLine](db),
		allocations: store.New[models.PaymentAllocation](db),
		invoices:    invoices,
		now:         now,
	}
}

// NextNumber computes the next payment number from the stored ones.
func (s *PaymentService) NextNumber(ctx context.Context) (string, error) {
	now := s.now()
	last, err := s.payments.Query(ctx, store.Where(
		store.Prefix("number", "REG"+strconv.Itoa(now.Year())+"-"),
	).OrderDesc("number").Take(1))
	if err != nil {
		return "", err
	}
	existing := make([]string, len(last))
	for i, p := range last {
		existing[i] = p.Number
	}
	return NextPaymentNumber(existing, now), nil
}

func (s *PaymentService) checkInput(in *PaymentInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if lines, allocs := in.Mismatches(); lines || allocs {
		slog.Warn("payment amounts do not match declared total",
			"client", in.Payment.ClientID,
			"total", in.Payment.TotalAmount.String(),
			"lines_mismatch", lines,
			"allocations_mismatch", allocs)
	}
	return nil
}

// Create writes the payment, then its lines, then its allocations. Invoice
// settlement is not touched; use Settle for that. On failure every document
// already written is removed.
func (s *PaymentService) Create(ctx context.Context, in PaymentInput) (*PaymentDetails, error) {
	if err := s.checkInput(&in); err != nil {
		return nil, err
	}
	p := in.Payment
	if p.Number == "" {
		n, err := s.NextNumber(ctx)
		if err != nil {
			return nil, err
		}
		p.Number = n
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = s.now()
	}

	var undo store.Undo
	id, err := store.Insert(ctx, &undo, s.payments, &p)
	if err != nil {
		slog.Error("create payment", "number", p.Number, "error", err)
		return nil, err
	}
	lines, allocs, err := s.writeChildren(ctx, &undo, id, in.Lines, in.Allocations)
	if err != nil {
		return nil, undo.Fail(ctx, err)
	}
	slog.Info("payment created", "id", id, "number", p.Number, "total", p.TotalAmount.String())
	return &PaymentDetails{Payment: p, Lines: lines, Allocations: allocs}, nil
}

func (s *PaymentService) writeChildren(ctx context.Context, undo *store.Undo, paymentID string, lines []models.PaymentLine, allocs []models.PaymentAllocation) ([]models.PaymentLine, []models.PaymentAllocation, error) {
	outLines := make([]models.PaymentLine, len(lines))
	for i, l := range lines {
		l.ID = ""
		l.PaymentID = paymentID
		if l.Status == "" {
			l.Status = models.ClearingPending
		}
		if l.DueDate != nil && l.DueDate.IsZero() {
			l.DueDate = nil
		}
		if _, err := store.Insert(ctx, undo, s.lines, &l); err != nil {
			slog.Error("create payment line", "payment", paymentID, "line", i, "error", err)
			return nil, nil, err
		}
		outLines[i] = l
	}
	now := s.now()
	outAllocs := make([]models.PaymentAllocation, len(allocs))
	for i, a := range allocs {
		a.ID = ""
		a.PaymentID = paymentID
		a.AllocationDate = now
		if _, err := store.Insert(ctx, undo, s.allocations, &a); err != nil {
			slog.Error("create payment allocation", "payment", paymentID, "invoice", a.InvoiceID, "error", err)
			return nil, nil, err
		}
		outAllocs[i] = a
	}
	return outLines, outAllocs, nil
}

// Settle creates the payment and recomputes the settlement of every invoice
// it is allocated to. Settlement is derived from all allocations of an
// invoice, so SyncInvoices can be retried after a failure.
func (s *PaymentService) Settle(ctx context.Context, in PaymentInput) (*PaymentDetails, error) {
	out, err := s.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.SyncInvoices(ctx, in.invoiceIDs()); err != nil {
		return out, err
	}
	return out, nil
}

// SyncInvoices recomputes settlement for each invoice from its allocations.
func (s *PaymentService) SyncInvoices(ctx context.Context, invoiceIDs []string) error {
	var errs []error
	for _, id := range invoiceIDs {
		if _, err := s.invoices.SyncSettlement(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("invoice %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Update replaces the payment fields and its full sets of lines and
// allocations. On failure the previous lines and allocations are restored.
func (s *PaymentService) Update(ctx context.Context, id string, in PaymentInput) (*PaymentDetails, error) {
	if err := s.checkInput(&in); err != nil {
		return nil, err
	}
	old, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, ErrPaymentNotFound
	}
	oldLines, err := s.Lines(ctx, id)
	if err != nil {
		return nil, err
	}
	oldAllocs, err := s.Allocations(ctx, id)
	if err != nil {
		return nil, err
	}

	p := in.Payment
	p.ID, p.Number, p.CreatedAt = id, old.Number, old.CreatedAt
	if p.PaymentDate.IsZero() {
		p.PaymentDate = old.PaymentDate
	}
	var undo store.Undo
	fields := map[string]any{
		"payment_date": p.PaymentDate,
		"client_id":    p.ClientID,
		"client_name":  p.ClientName,
		"total_amount": p.TotalAmount,
		"notes":        p.Notes,
	}
	if err := s.payments.Update(ctx, id, fields); err != nil {
		slog.Error("update payment", "id", id, "error", err)
		return nil, err
	}
	undo.Push(func(ctx context.Context) error {
		return s.payments.Update(ctx, id, map[string]any{
			"payment_date": old.PaymentDate,
			"client_id":    old.ClientID,
			"client_name":  old.ClientName,
			"total_amount": old.TotalAmount,
			"notes":        old.Notes,
		})
	})

	if _, err := s.lines.DeleteWhere(ctx, store.Eq("payment_id", id)); err != nil {
		slog.Error("delete payment lines", "payment", id, "error", err)
		return nil, undo.Fail(ctx, err)
	}
	undo.Push(func(ctx context.Context) error { return restore(ctx, s.lines, oldLines) })
	if _, err := s.allocations.DeleteWhere(ctx, store.Eq("payment_id", id)); err != nil {
		slog.Error("delete payment allocations", "payment", id, "error", err)
		return nil, undo.Fail(ctx, err)
	}
	undo.Push(func(ctx context.Context) error { return restore(ctx, s.allocations, oldAllocs) })

	lines, allocs, err := s.writeChildren(ctx, &undo, id, in.Lines, in.Allocations)
	if err != nil {
		return nil, undo.Fail(ctx, err)
	}
	return &PaymentDetails{Payment: p, Lines: lines, Allocations: allocs}, nil
}

// Resettle updates the payment and recomputes settlement of the invoices it
// was and is now allocated to.
func (s *PaymentService) Resettle(ctx context.Context, id string, in PaymentInput) (*PaymentDetails, error) {
	before, err := s.Allocations(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := s.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	ids := in.invoiceIDs()
	for _, a := range before {
		ids = appendUnique(ids, a.InvoiceID)
	}
	return out, s.SyncInvoices(ctx, ids)
}

// restore re-inserts docs removed by a replace.
func restore[T any](ctx context.Context, c *store.Collection[T], docs []T) error {
	var errs []error
	for i := range docs {
		if _, err := c.Insert(ctx, &docs[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func appendUnique(ids []string, id string) []string {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

// UpdateLineStatus sets the clearing status of a line. Any transition is
// allowed.
func (s *PaymentService) UpdateLineStatus(ctx context.Context, lineID string, status models.ClearingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.lines.Update(ctx, lineID, map[string]any{"status": status}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPaymentLineNotFound
		}
		slog.Error("update payment line status", "line", lineID, "error", err)
		return err
	}
	return nil
}

// Get returns the payment with its lines and allocations, or nil when missing.
func (s *PaymentService) Get(ctx context.Context, id string) (*PaymentDetails, error) {
	p, err := s.payments.Get(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	lines, err := s.Lines(ctx, id)
	if err != nil {
		return nil, err
	}
	allocs, err := s.Allocations(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PaymentDetails{Payment: *p, Lines: lines, Allocations: allocs}, nil
}

// List returns all payments, latest first.
func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	return s.payments.Query(ctx, store.Query{}.OrderDesc("payment_date"))
}

// Lines returns the lines of a payment.
func (s *PaymentService) Lines(ctx context.Context, paymentID string) ([]models.PaymentLine, error) {
	return s.lines.Query(ctx, store.Where(store.Eq("payment_id", paymentID)).Order("created_at"))
}

// Allocations returns the allocations of a payment.
func (s *PaymentService) Allocations(ctx context.Context, paymentID string) ([]models.PaymentAllocation, error) {
	return s.allocations.Query(ctx, store.Where(store.Eq("payment_id", paymentID)).Order("created_at"))
}

// ByClient returns a client's payments, latest first.
func (s *PaymentService) ByClient(ctx context.Context, clientID string) ([]models.Payment, error) {
	return s.payments.Query(ctx, store.Where(store.Eq("client_id", clientID)).OrderDesc("payment_date"))
}

// ByInvoice returns the allocations made to an invoice.
func (s *PaymentService) ByInvoice(ctx context.Context, invoiceID string) ([]models.PaymentAllocation, error) {
	return s.allocations.Query(ctx, store.Where(store.Eq("invoice_id", invoiceID)).OrderDesc("allocation_date"))
}

// ByDateRange returns payments dated within [from, to], latest first.
func (s *PaymentService) ByDateRange(ctx context.Context, from, to time.Time) ([]models.Payment, error) {
	return s.payments.Query(ctx, store.Where(
		store.Gte("payment_date", from),
		store.Lte("payment_date", to),
	).OrderDesc("payment_date"))
}

// LinesByInstrument returns every payment line using instrument.
func (s *PaymentService) LinesByInstrument(ctx context.Context, instrument models.Instrument) ([]models.PaymentLine, error) {
	return s.lines.Query(ctx, store.Where(store.Eq("instrument", instrument)).OrderDesc("created_at"))
}

// DueDates returns lines carrying a due date, optionally with one status,
// earliest first.
func (s *PaymentService) DueDates(ctx context.Context, status models.ClearingStatus) ([]models.PaymentLine, error) {
	filters := []store.Filter{store.Neq("due_date", nil)}
	if status != "" {
		filters = append(filters, store.Eq("status", status))
	}
	return s.lines.Query(ctx, store.Where(filters...).Order("due_date"))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// UpcomingDueDates returns pending lines due from today through the end of
// the day `days` days ahead, earliest first.
func (s *PaymentService) UpcomingDueDates(ctx context.Context, days int) ([]models.PaymentLine, error) {
	today := startOfDay(s.now())
	return s.lines.Query(ctx, store.Where(
		store.Gte("due_date", today),
		store.Lt("due_date", today.AddDate(0, 0, days+1)),
		store.Eq("status", models.ClearingPending),
	).Order("due_date"))
}

// OverdueDueDates returns pending lines due before today, earliest first.
func (s *PaymentService) OverdueDueDates(ctx context.Context) ([]models.PaymentLine, error) {
	return s.lines.Query(ctx, store.Where(
		store.Lt("due_date", startOfDay(s.now())),
		store.Eq("status", models.ClearingPending),
	).Order("due_date"))
}

// TotalByClient sums the declared totals of a client's payments.
func (s *PaymentService) TotalByClient(ctx context.Context, clientID string) (decimal.Decimal, error) {
	ps, err := s.ByClient(ctx, clientID)
	if err != nil {
		return decimal.Zero, err
	}
	return sumPayments(ps), nil
}

// TotalCollected sums the declared totals of payments dated within [from, to].
func (s *PaymentService) TotalCollected(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	ps, err := s.ByDateRange(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return sumPayments(ps), nil
}

func sumPayments(ps []models.Payment) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(ps))
	for i, p := range ps {
		amounts[i] = p.TotalAmount
	}
	return Sum(amounts...)
}
