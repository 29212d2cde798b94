package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every stored document. IDs are random UUID strings
// assigned on insert.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the document id.
func (b *Base) GetID() string { return b.ID }

// BeforeCreate assigns an id when the caller did not provide one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Changes is the column set written by a partial update.
type Changes map[string]any

func (c Changes) setString(col string, v *string) {
	if v != nil {
		c[col] = *v
	}
}

func (c Changes) setTime(col string, v *time.Time) {
	if v != nil {
		c[col] = *v
	}
}

// All lists every stored document type, in migration order.
func All() []any {
	return []any{
		&User{}, &Parameter{}, &Brand{}, &VehicleModel{}, &Vehicle{}, &Client{},
		&Rental{}, &Invoice{}, &InvoiceLine{}, &Payment{}, &PaymentLine{},
		&PaymentAllocation{}, &Expense{},
	}
}
