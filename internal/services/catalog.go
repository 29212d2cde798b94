package services

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
	"github.com/diewo77/go-rentals/validation"
)

// ErrNotFound is returned when updating or deleting a missing reference
// document.
var ErrNotFound = errors.New("not found")

// Patch is implemented by the models.*Patch types.
type Patch interface {
	Changes() models.Changes
}

// Catalog is CRUD over one reference collection.
type Catalog[T any, P Patch] struct {
	docs     *store.Collection[T]
	order    string
	validate func(*T) error
}

func newCatalog[T any, P Patch](db *gorm.DB, order string, validate func(*T) error) *Catalog[T, P] {
	return &Catalog[T, P]{docs: store.New[T](db), order: order, validate: validate}
}

// List returns every document in catalog order.
func (c *Catalog[T, P]) List(ctx context.Context) ([]T, error) {
	return c.docs.All(ctx, c.order)
}

// Where returns documents matching a single equality filter.
func (c *Catalog[T, P]) Where(ctx context.Context, field string, value any) ([]T, error) {
	return c.docs.Query(ctx, store.Where(store.Eq(field, value)).Order(c.order))
}

// Get returns the document, or nil when missing.
func (c *Catalog[T, P]) Get(ctx context.Context, id string) (*T, error) {
	return c.docs.Get(ctx, id)
}

// Create validates and stores doc.
func (c *Catalog[T, P]) Create(ctx context.Context, doc *T) error {
	if c.validate != nil {
		if err := c.validate(doc); err != nil {
			return err
		}
	}
	if _, err := c.docs.Insert(ctx, doc); err != nil {
		slog.Error("create document", "error", err)
		return err
	}
	return nil
}

// Update merges the patch into the stored document. Patches with a Validate
// method are checked first.
func (c *Catalog[T, P]) Update(ctx context.Context, id string, p P) (*T, error) {
	if pv, ok := any(p).(interface{ Validate() error }); ok {
		if err := pv.Validate(); err != nil {
			return nil, err
		}
	}
	if err := c.docs.Update(ctx, id, p.Changes()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		slog.Error("update document", "id", id, "error", err)
		return nil, err
	}
	return c.docs.Get(ctx, id)
}

// Delete removes the document.
func (c *Catalog[T, P]) Delete(ctx context.Context, id string) error {
	if err := c.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		slog.Error("delete document", "id", id, "error", err)
		return err
	}
	return nil
}

type (
	BrandCatalog   = Catalog[models.Brand, models.BrandPatch]
	ModelCatalog   = Catalog[models.VehicleModel, models.VehicleModelPatch]
	VehicleCatalog = Catalog[models.Vehicle, models.VehiclePatch]
	ClientCatalog  = Catalog[models.Client, models.ClientPatch]
)

func NewBrandCatalog(db *gorm.DB) *BrandCatalog {
	return newCatalog[models.Brand, models.BrandPatch](db, "name", func(b *models.Brand) error {
		v := validation.Violations{}
		validation.Required("name", b.Name, v)
		return v.Err()
	})
}

func NewModelCatalog(db *gorm.DB) *ModelCatalog {
	return newCatalog[models.VehicleModel, models.VehicleModelPatch](db, "name", func(m *models.VehicleModel) error {
		v := validation.Violations{}
		validation.Required("name", m.Name, v)
		validation.Required("brand_id", m.BrandID, v)
		return v.Err()
	})
}

func NewVehicleCatalog(db *gorm.DB) *VehicleCatalog {
	return newCatalog[models.Vehicle, models.VehiclePatch](db, "registration", func(x *models.Vehicle) error {
		v := validation.Violations{}
		validation.Required("registration", x.Registration, v)
		validation.Required("model_id", x.ModelID, v)
		validation.NonNegativeDecimal("unit_price_ht", x.UnitPriceHT, v)
		return v.Err()
	})
}

func NewClientCatalog(db *gorm.DB) *ClientCatalog {
	return newCatalog[models.Client, models.ClientPatch](db, "last_name", ValidateClient)
}

// ValidateClient checks a client record.
func ValidateClient(c *models.Client) error {
	v := validation.Violations{}
	if c.Type == "" {
		c.Type = models.ClientIndividual
	}
	validation.OneOf("type", c.Type, []models.ClientType{models.ClientIndividual, models.ClientCompany}, v)
	if c.Type == models.ClientCompany {
		validation.Required("company_name", c.CompanyName, v)
	} else {
		validation.Required("last_name", c.LastName, v)
	}
	if len(c.Drivers) > models.MaxDrivers {
		v["drivers"] = "too_many"
	}
	return v.Err()
}
