package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-rentals/internal/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// fleetFixture stores one brand, model, vehicle and client.
type fleetFixture struct {
	brand   models.Brand
	model   models.VehicleModel
	vehicle models.Vehicle
	client  models.Client
}

func seedFleet(t *testing.T, db *gorm.DB) fleetFixture {
	t.Helper()
	f := fleetFixture{
		brand:  models.Brand{Name: "Renault"},
		client: models.Client{Type: models.ClientIndividual, LastName: "Ben Ali", FirstName: "Sami", NationalID: "01234567"},
	}
	mustCreate(t, db, &f.brand)
	f.model = models.VehicleModel{Name: "Clio", BrandID: f.brand.ID}
	mustCreate(t, db, &f.model)
	f.vehicle = models.Vehicle{ModelID: f.model.ID, Registration: "123 TU 4567", Active: true, UnitPriceHT: decimal.NewFromInt(100)}
	mustCreate(t, db, &f.vehicle)
	mustCreate(t, db, &f.client)
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, doc any) {
	t.Helper()
	if err := db.WithContext(context.Background()).Create(doc).Error; err != nil {
		t.Fatalf("create %T: %v", doc, err)
	}
}

// newRental returns a priced rental at the default VAT rate.
func newRental(clientID, vehicleID string, start, end time.Time, price int64) models.Rental {
	r := models.Rental{
		ClientID:      clientID,
		VehicleID:     vehicleID,
		StartDate:     start,
		EndDate:       end,
		UnitPriceHT:   decimal.NewFromInt(price),
		BillingStatus: models.BillingOpen,
	}
	PriceRental(&r, DefaultSettings().VATRate)
	return r
}
