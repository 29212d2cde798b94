package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RentalStatus is derived from the rental dates and the current instant.
// It is never stored.
type RentalStatus string

const (
	RentalPlanned   RentalStatus = "planned"
	RentalActive    RentalStatus = "active"
	RentalCompleted RentalStatus = "completed"
)

// BillingStatus tracks whether a rental has been put on an invoice.
type BillingStatus string

const (
	BillingOpen     BillingStatus = "open"
	BillingInvoiced BillingStatus = "invoiced"
)

// DepositType is the instrument used for the security deposit.
type DepositType string

const (
	DepositCash     DepositType = "cash"
	DepositCheque   DepositType = "cheque"
	DepositCard     DepositType = "card"
	DepositTransfer DepositType = "transfer"
)

// Anomaly is a damage annotation recorded at pickup or return.
type Anomaly struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

// Rental is a rental contract (stored in "locations").
type Rental struct {
	Base
	ClientID        string                       `gorm:"size:36;index" json:"client_id"`
	VehicleID       string                       `gorm:"size:36;index" json:"vehicle_id"`
	StartDate       time.Time                    `gorm:"not null;index" json:"start_date"`
	EndDate         time.Time                    `gorm:"not null" json:"end_date"`
	MileageOut      int                          `json:"mileage_out"`
	MileageIn       *int                         `json:"mileage_in,omitempty"`
	FuelOut         int                          `json:"fuel_out"`
	FuelIn          *int                         `json:"fuel_in,omitempty"`
	PickupAnomalies datatypes.JSONSlice[Anomaly] `json:"pickup_anomalies,omitempty"`
	ReturnAnomalies datatypes.JSONSlice[Anomaly] `json:"return_anomalies,omitempty"`
	DepositType     DepositType                  `gorm:"size:20" json:"deposit_type,omitempty"`
	DepositAmount   decimal.Decimal              `gorm:"type:decimal(18,3);not null;default:0" json:"deposit_amount"`
	UnitPriceHT     decimal.Decimal              `gorm:"type:decimal(18,3);not null" json:"unit_price_ht"`
	DayCount        int                          `gorm:"not null" json:"day_count"`
	TotalHT         decimal.Decimal              `gorm:"type:decimal(18,3);not null" json:"total_ht"`
	TotalTTC        decimal.Decimal              `gorm:"type:decimal(18,3);not null" json:"total_ttc"`
	Notes           string                       `gorm:"type:text" json:"notes,omitempty"`
	BillingStatus   BillingStatus                `gorm:"size:20;not null;default:'open';index" json:"billing_status"`
}

func (Rental) TableName() string { return "locations" }

// RentalPatch holds optional rental fields. Totals and billing status are
// not patchable; totals are recomputed from the merged record.
type RentalPatch struct {
	ClientID        *string          `json:"client_id"`
	VehicleID       *string          `json:"vehicle_id"`
	StartDate       *time.Time       `json:"start_date"`
	EndDate         *time.Time       `json:"end_date"`
	MileageOut      *int             `json:"mileage_out"`
	MileageIn       *int             `json:"mileage_in"`
	FuelOut         *int             `json:"fuel_out"`
	FuelIn          *int             `json:"fuel_in"`
	PickupAnomalies *[]Anomaly       `json:"pickup_anomalies"`
	ReturnAnomalies *[]Anomaly       `json:"return_anomalies"`
	DepositType     *DepositType     `json:"deposit_type"`
	DepositAmount   *decimal.Decimal `json:"deposit_amount"`
	UnitPriceHT     *decimal.Decimal `json:"unit_price_ht"`
	Notes           *string          `json:"notes"`
}

// Apply merges the patch into r: present fields overwrite, absent ones are kept.
func (p RentalPatch) Apply(r *Rental) {
	if p.ClientID != nil {
		r.ClientID = *p.ClientID
	}
	if p.VehicleID != nil {
		r.VehicleID = *p.VehicleID
	}
	if p.StartDate != nil {
		r.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		r.EndDate = *p.EndDate
	}
	if p.MileageOut != nil {
		r.MileageOut = *p.MileageOut
	}
	if p.MileageIn != nil {
		r.MileageIn = p.MileageIn
	}
	if p.FuelOut != nil {
		r.FuelOut = *p.FuelOut
	}
	if p.FuelIn != nil {
		r.FuelIn = p.FuelIn
	}
	if p.PickupAnomalies != nil {
		r.PickupAnomalies = datatypes.NewJSONSlice(*p.PickupAnomalies)
	}
	if p.ReturnAnomalies != nil {
		r.ReturnAnomalies = datatypes.NewJSONSlice(*p.ReturnAnomalies)
	}
	if p.DepositType != nil {
		r.DepositType = *p.DepositType
	}
	if p.DepositAmount != nil {
		r.DepositAmount = *p.DepositAmount
	}
	if p.UnitPriceHT != nil {
		r.UnitPriceHT = *p.UnitPriceHT
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
}

// Changes returns the columns present in the patch.
func (p RentalPatch) Changes() Changes {
	c := Changes{}
	c.setString("client_id", p.ClientID)
	c.setString("vehicle_id", p.VehicleID)
	c.setTime("start_date", p.StartDate)
	c.setTime("end_date", p.EndDate)
	if p.MileageOut != nil {
		c["mileage_out"] = *p.MileageOut
	}
	if p.MileageIn != nil {
		c["mileage_in"] = *p.MileageIn
	}
	if p.FuelOut != nil {
		c["fuel_out"] = *p.FuelOut
	}
	if p.FuelIn != nil {
		c["fuel_in"] = *p.FuelIn
	}
	if p.PickupAnomalies != nil {
		c["pickup_anomalies"] = datatypes.NewJSONSlice(*p.PickupAnomalies)
	}
	if p.ReturnAnomalies != nil {
		c["return_anomalies"] = datatypes.NewJSONSlice(*p.ReturnAnomalies)
	}
	if p.DepositType != nil {
		c["deposit_type"] = *p.DepositType
	}
	if p.DepositAmount != nil {
		c["deposit_amount"] = *p.DepositAmount
	}
	if p.UnitPriceHT != nil {
		c["unit_price_ht"] = *p.UnitPriceHT
	}
	c.setString("notes", p.Notes)
	return c
}

// AffectsTotals reports whether applying the patch can change day count or totals.
func (p RentalPatch) AffectsTotals() bool {
	return p.StartDate != nil || p.EndDate != nil || p.UnitPriceHT != nil
}
