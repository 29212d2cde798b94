package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/diewo77/go-rentals/validation"
)

// ClientType distinguishes individuals from companies.
type ClientType string

const (
	ClientIndividual ClientType = "individual"
	ClientCompany    ClientType = "company"
)

// MaxDrivers is the number of additional drivers a client may declare.
const MaxDrivers = 2

// Driver is an additional authorised driver declared on a client.
type Driver struct {
	LastName      string     `json:"last_name"`
	FirstName     string     `json:"first_name"`
	NationalID    string     `json:"national_id,omitempty"`
	LicenceNumber string     `json:"licence_number,omitempty"`
	LicenceDate   *time.Time `json:"licence_date,omitempty"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
}

// Client is a renter, either a person or a company.
type Client struct {
	Base
	Type        ClientType                  `gorm:"size:20;not null;default:'individual'" json:"type"`
	LastName    string                      `gorm:"size:100;index" json:"last_name"`
	FirstName   string                      `gorm:"size:100" json:"first_name"`
	CompanyName string                      `gorm:"size:255" json:"company_name,omitempty"`
	Address     string                      `gorm:"size:500" json:"address,omitempty"`
	Phone       string                      `gorm:"size:50" json:"phone,omitempty"`
	Email       string                      `gorm:"size:255" json:"email,omitempty"`
	NationalID  string                      `gorm:"size:30" json:"national_id,omitempty"`
	TaxID       string                      `gorm:"size:30" json:"tax_id,omitempty"`
	Drivers     datatypes.JSONSlice[Driver] `json:"drivers,omitempty"`
}

func (Client) TableName() string { return "clients" }

// DisplayName is the company name for companies, "LastName FirstName" otherwise.
func (c *Client) DisplayName() string {
	if c.Type == ClientCompany && c.CompanyName != "" {
		return c.CompanyName
	}
	return strings.TrimSpace(c.LastName + " " + c.FirstName)
}

// FiscalID is the identifier printed on invoices.
func (c *Client) FiscalID() string {
	if c.Type == ClientCompany {
		return c.TaxID
	}
	return c.NationalID
}

// ClientPatch holds optional client fields.
type ClientPatch struct {
	Type        *ClientType `json:"type"`
	LastName    *string     `json:"last_name"`
	FirstName   *string     `json:"first_name"`
	CompanyName *string     `json:"company_name"`
	Address     *string     `json:"address"`
	Phone       *string     `json:"phone"`
	Email       *string     `json:"email"`
	NationalID  *string     `json:"national_id"`
	TaxID       *string     `json:"tax_id"`
	Drivers     *[]Driver   `json:"drivers"`
}

// Changes returns the columns present in the patch.
func (p ClientPatch) Changes() Changes {
	c := Changes{}
	if p.Type != nil {
		c["type"] = *p.Type
	}
	c.setString("last_name", p.LastName)
	c.setString("first_name", p.FirstName)
	c.setString("company_name", p.CompanyName)
	c.setString("address", p.Address)
	c.setString("phone", p.Phone)
	c.setString("email", p.Email)
	c.setString("national_id", p.NationalID)
	c.setString("tax_id", p.TaxID)
	if p.Drivers != nil {
		c["drivers"] = datatypes.NewJSONSlice(*p.Drivers)
	}
	return c
}

// Validate checks the patched type and driver count.
func (p ClientPatch) Validate() error {
	v := validation.Violations{}
	if p.Type != nil {
		validation.OneOf("type", *p.Type, []ClientType{ClientIndividual, ClientCompany}, v)
	}
	if p.Drivers != nil && len(*p.Drivers) > MaxDrivers {
		v["drivers"] = "too_many"
	}
	return v.Err()
}
