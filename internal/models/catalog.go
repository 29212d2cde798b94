package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Brand is a vehicle manufacturer.
type Brand struct {
	Base
	Name string `gorm:"size:100;not null;index" json:"name"`
	Logo string `gorm:"size:500" json:"logo,omitempty"`
}

func (Brand) TableName() string { return "brands" }

// BrandPatch holds optional brand fields.
type BrandPatch struct {
	Name *string `json:"name"`
	Logo *string `json:"logo"`
}

// Changes returns the columns present in the patch.
func (p BrandPatch) Changes() Changes {
	c := Changes{}
	c.setString("name", p.Name)
	c.setString("logo", p.Logo)
	return c
}

// VehicleModel is a model line of a brand (stored in "models").
type VehicleModel struct {
	Base
	Name    string `gorm:"size:100;not null" json:"name"`
	BrandID string `gorm:"size:36;index" json:"brand_id"`
}

func (VehicleModel) TableName() string { return "models" }

// VehicleModelPatch holds optional model fields.
type VehicleModelPatch struct {
	Name    *string `json:"name"`
	BrandID *string `json:"brand_id"`
}

// Changes returns the columns present in the patch.
func (p VehicleModelPatch) Changes() Changes {
	c := Changes{}
	c.setString("name", p.Name)
	c.setString("brand_id", p.BrandID)
	return c
}

// Vehicle is a fleet unit. Inactive vehicles count as in maintenance.
type Vehicle struct {
	Base
	ModelID          string          `gorm:"size:36;index" json:"model_id"`
	Chassis          string          `gorm:"size:50" json:"chassis,omitempty"`
	Registration     string          `gorm:"size:30;index" json:"registration"`
	FirstCirculation *time.Time      `json:"first_circulation,omitempty"`
	Insurer          string          `gorm:"size:100" json:"insurer,omitempty"`
	InsuranceExpiry  *time.Time      `json:"insurance_expiry,omitempty"`
	InspectionExpiry *time.Time      `json:"inspection_expiry,omitempty"`
	VignetteExpiry   *time.Time      `json:"vignette_expiry,omitempty"`
	Active           bool            `gorm:"not null" json:"active"`
	UnitPriceHT      decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0" json:"unit_price_ht"`
}

func (Vehicle) TableName() string { return "vehicles" }

// VehiclePatch holds optional vehicle fields.
type VehiclePatch struct {
	ModelID          *string          `json:"model_id"`
	Chassis          *string          `json:"chassis"`
	Registration     *string          `json:"registration"`
	FirstCirculation *time.Time       `json:"first_circulation"`
	Insurer          *string          `json:"insurer"`
	InsuranceExpiry  *time.Time       `json:"insurance_expiry"`
	InspectionExpiry *time.Time       `json:"inspection_expiry"`
	VignetteExpiry   *time.Time       `json:"vignette_expiry"`
	Active           *bool            `json:"active"`
	UnitPriceHT      *decimal.Decimal `json:"unit_price_ht"`
}

// Changes returns the columns present in the patch.
func (p VehiclePatch) Changes() Changes {
	c := Changes{}
	c.setString("model_id", p.ModelID)
	c.setString("chassis", p.Chassis)
	c.setString("registration", p.Registration)
	c.setTime("first_circulation", p.FirstCirculation)
	c.setString("insurer", p.Insurer)
	c.setTime("insurance_expiry", p.InsuranceExpiry)
	c.setTime("inspection_expiry", p.InspectionExpiry)
	c.setTime("vignette_expiry", p.VignetteExpiry)
	if p.Active != nil {
		c["active"] = *p.Active
	}
	if p.UnitPriceHT != nil {
		c["unit_price_ht"] = *p.UnitPriceHT
	}
	return c
}
