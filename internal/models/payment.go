package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instrument is a means of payment on a payment line.
type Instrument string

const (
	InstrumentCash     Instrument = "cash"
	InstrumentCheque   Instrument = "cheque"
	InstrumentBill     Instrument = "bill" // bill of exchange
	InstrumentTransfer Instrument = "transfer"
)

// Valid reports whether i is a known instrument.
func (i Instrument) Valid() bool {
	switch i {
	case InstrumentCash, InstrumentCheque, InstrumentBill, InstrumentTransfer:
		return true
	}
	return false
}

// Deferred reports whether the instrument carries a due date.
func (i Instrument) Deferred() bool { return i != InstrumentCash }

// ClearingStatus is the collection state of a payment line.
type ClearingStatus string

const (
	ClearingPending  ClearingStatus = "pending"
	ClearingCleared  ClearingStatus = "cleared"
	ClearingRejected ClearingStatus = "rejected"
)

// Valid reports whether s is a known clearing status.
func (s ClearingStatus) Valid() bool {
	return s == ClearingPending || s == ClearingCleared || s == ClearingRejected
}

// Payment is a settlement received from a client.
type Payment struct {
	Base
	Number      string          `gorm:"size:20;uniqueIndex" json:"number"`
	PaymentDate time.Time       `gorm:"not null;index" json:"payment_date"`
	ClientID    string          `gorm:"size:36;index" json:"client_id"`
	ClientName  string          `gorm:"size:255" json:"client_name,omitempty"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"total_amount"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`
}

func (Payment) TableName() string { return "payments" }

// PaymentLine is the part of a payment made with one instrument.
type PaymentLine struct {
	Base
	PaymentID  string          `gorm:"size:36;index" json:"payment_id"`
	Instrument Instrument      `gorm:"size:20;not null;index" json:"instrument"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"amount"`
	Reference  string          `gorm:"size:100" json:"reference,omitempty"`
	Bank       string          `gorm:"size:100" json:"bank,omitempty"`
	DueDate    *time.Time      `gorm:"index" json:"due_date"`
	Status     ClearingStatus  `gorm:"size:20;not null;default:'pending';index" json:"status"`
}

func (PaymentLine) TableName() string { return "payment_lines" }

// PaymentAllocation assigns part of a payment to one invoice.
type PaymentAllocation struct {
	Base
	PaymentID      string          `gorm:"size:36;index" json:"payment_id"`
	InvoiceID      string          `gorm:"size:36;index" json:"invoice_id"`
	InvoiceNumber  string          `gorm:"size:20" json:"invoice_number,omitempty"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"amount"`
	AllocationDate time.Time       `json:"allocation_date"`
}

func (PaymentAllocation) TableName() string { return "payment_allocations" }
