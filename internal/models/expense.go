package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory groups expense types.
type ExpenseCategory string

const (
	ExpenseFixed   ExpenseCategory = "fixed"
	ExpenseVehicle ExpenseCategory = "vehicle"
	ExpenseMisc    ExpenseCategory = "misc"
)

// ExpenseTypes lists the allowed types per category.
var ExpenseTypes = map[ExpenseCategory][]string{
	ExpenseFixed:   {"rent", "electricity", "water", "internet", "phone", "salary", "social_security", "accounting", "insurance"},
	ExpenseVehicle: {"fuel", "maintenance", "repair", "tires", "insurance", "inspection", "vignette", "washing", "parts"},
	ExpenseMisc:    {"supplies", "advertising", "fees", "taxes", "other"},
}

// PaymentMethod is how an expense was paid.
type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayCheque   PaymentMethod = "cheque"
	PayTransfer PaymentMethod = "transfer"
	PayCard     PaymentMethod = "card"
)

// Expense is an outgoing cost.
type Expense struct {
	Base
	Date          time.Time           `gorm:"not null;index" json:"date"`
	Amount        decimal.NullDecimal `gorm:"type:decimal(18,3)" json:"amount"`
	Category      ExpenseCategory     `gorm:"size:20;not null;index" json:"category"`
	Type          string              `gorm:"size:50;not null" json:"type"`
	Description   string              `gorm:"size:500" json:"description,omitempty"`
	VehicleID     *string             `gorm:"size:36;index" json:"vehicle_id,omitempty"`
	PaymentMethod PaymentMethod       `gorm:"size:20" json:"payment_method,omitempty"`
}

func (Expense) TableName() string { return "expenses" }

// ExpensePatch holds optional expense fields.
type ExpensePatch struct {
	Date          *time.Time           `json:"date"`
	Amount        *decimal.NullDecimal `json:"amount"`
	Category      *ExpenseCategory     `json:"category"`
	Type          *string              `json:"type"`
	Description   *string              `json:"description"`
	VehicleID     *string              `json:"vehicle_id"`
	PaymentMethod *PaymentMethod       `json:"payment_method"`
}

// Apply merges the patch into e.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.VehicleID != nil {
		if *p.VehicleID == "" {
			e.VehicleID = nil
		} else {
			e.VehicleID = p.VehicleID
		}
	}
	if p.PaymentMethod != nil {
		e.PaymentMethod = *p.PaymentMethod
	}
}

// Changes returns the columns present in the patch. An empty vehicle id
// clears the reference.
func (p ExpensePatch) Changes() Changes {
	c := Changes{}
	c.setTime("date", p.Date)
	if p.Amount != nil {
		c["amount"] = *p.Amount
	}
	if p.Category != nil {
		c["category"] = *p.Category
	}
	c.setString("type", p.Type)
	c.setString("description", p.Description)
	if p.VehicleID != nil {
		if *p.VehicleID == "" {
			c["vehicle_id"] = nil
		} else {
			c["vehicle_id"] = *p.VehicleID
		}
	}
	if p.PaymentMethod != nil {
		c["payment_method"] = *p.PaymentMethod
	}
	return c
}
