package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus is the lifecycle status of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceValidated InvoiceStatus = "validated"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is a known lifecycle status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceValidated, InvoicePaid, InvoiceCancelled:
		return true
	}
	return false
}

// SettlementStatus tracks how much of an invoice has been paid. It moves
// independently of InvoiceStatus.
type SettlementStatus string

const (
	Unsettled        SettlementStatus = "unsettled"
	PartiallySettled SettlementStatus = "partial"
	Settled          SettlementStatus = "settled"
)

// Invoice is an invoice header. Client name and fiscal id are snapshotted at
// creation.
type Invoice struct {
	Base
	Number           string                      `gorm:"size:20;uniqueIndex" json:"number"`
	InvoiceDate      time.Time                   `gorm:"not null;index" json:"invoice_date"`
	RentalIDs        datatypes.JSONSlice[string] `gorm:"column:location_ids" json:"rental_ids"`
	ClientID         string                      `gorm:"size:36;index" json:"client_id"`
	ClientName       string                      `gorm:"size:255" json:"client_name"`
	ClientTaxID      string                      `gorm:"size:30" json:"client_tax_id,omitempty"`
	SubtotalHT       decimal.Decimal             `gorm:"type:decimal(18,3);not null" json:"subtotal_ht"`
	DiscountAmount   decimal.Decimal             `gorm:"type:decimal(18,3);not null;default:0" json:"discount_amount"`
	TaxableAmount    decimal.Decimal             `gorm:"type:decimal(18,3);not null" json:"taxable_amount"`
	VATRate          decimal.Decimal             `gorm:"type:decimal(7,3);not null" json:"vat_rate"`
	VATAmount        decimal.Decimal             `gorm:"type:decimal(18,3);not null" json:"vat_amount"`
	StampDuty        decimal.Decimal             `gorm:"type:decimal(18,3);not null;default:0" json:"stamp_duty"`
	TotalTTC         decimal.Decimal             `gorm:"type:decimal(18,3);not null" json:"total_ttc"`
	Status           InvoiceStatus               `gorm:"size:20;not null;default:'draft';index" json:"status"`
	ValidatedAt      *time.Time                  `json:"validated_at,omitempty"`
	SettlementStatus SettlementStatus            `gorm:"size:20;not null;default:'unsettled';index" json:"settlement_status"`
	PaidAmount       decimal.Decimal             `gorm:"type:decimal(18,3);not null;default:0" json:"paid_amount"`
	RemainingAmount  decimal.Decimal             `gorm:"type:decimal(18,3);not null" json:"remaining_amount"`
	Notes            string                      `gorm:"type:text" json:"notes,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

// CountsAsRevenue reports whether the invoice contributes to realised revenue.
func (i *Invoice) CountsAsRevenue() bool {
	return i.Status == InvoicePaid || i.Status == InvoiceValidated
}

// InvoicePatch holds the header fields editable after creation.
type InvoicePatch struct {
	InvoiceDate *time.Time     `json:"invoice_date"`
	Status      *InvoiceStatus `json:"status"`
	Notes       *string        `json:"notes"`
}

// Changes returns the columns present in the patch.
func (p InvoicePatch) Changes() Changes {
	c := Changes{}
	c.setTime("invoice_date", p.InvoiceDate)
	if p.Status != nil {
		c["status"] = *p.Status
	}
	c.setString("notes", p.Notes)
	return c
}

// InvoiceLine is one billed rental. Lines are written with their header and
// never modified.
type InvoiceLine struct {
	Base
	InvoiceID           string          `gorm:"size:36;index" json:"invoice_id"`
	RentalID            string          `gorm:"size:36;index" json:"rental_id,omitempty"`
	Description         string          `gorm:"size:500" json:"description"`
	PeriodStart         *time.Time      `json:"period_start,omitempty"`
	PeriodEnd           *time.Time      `json:"period_end,omitempty"`
	VehicleRegistration string          `gorm:"size:30" json:"vehicle_registration,omitempty"`
	VehicleLabel        string          `gorm:"size:255" json:"vehicle_label,omitempty"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"quantity"`
	UnitPriceHT         decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"unit_price_ht"`
	DiscountPercent     decimal.Decimal `gorm:"type:decimal(7,3);not null;default:0" json:"discount_percent"`
	DiscountAmount      decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0" json:"discount_amount"`
	TotalHT             decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"total_ht"`
	Position            int             `gorm:"default:0" json:"position"`
}

func (InvoiceLine) TableName() string { return "invoiceLines" }
