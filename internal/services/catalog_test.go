package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/validation"
)

func ptr[T any](v T) *T { return &v }

func TestBrandCatalog_CRUD(t *testing.T) {
	ctx := context.Background()
	brands := NewBrandCatalog(setupServiceTestDB(t))

	for _, name := range []string{"Renault", "Kia", "Peugeot"} {
		require.NoError(t, brands.Create(ctx, &models.Brand{Name: name}))
	}
	var v validation.Violations
	require.ErrorAs(t, brands.Create(ctx, &models.Brand{}), &v)
	assert.Equal(t, "required", v["name"])

	all, err := brands.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Kia", all[0].Name)

	updated, err := brands.Update(ctx, all[0].ID, models.BrandPatch{Name: ptr("KIA")})
	require.NoError(t, err)
	assert.Equal(t, "KIA", updated.Name)

	_, err = brands.Update(ctx, "missing", models.BrandPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, brands.Delete(ctx, all[0].ID))
	assert.ErrorIs(t, brands.Delete(ctx, all[0].ID), ErrNotFound)
	got, err := brands.Get(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestModelCatalog_Where(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	fx := seedFleet(t, db)
	cat := NewModelCatalog(db)

	require.NoError(t, cat.Create(ctx, &models.VehicleModel{Name: "Captur", BrandID: fx.brand.ID}))
	require.NoError(t, cat.Create(ctx, &models.VehicleModel{Name: "Picanto", BrandID: "other"}))

	byBrand, err := cat.Where(ctx, "brand_id", fx.brand.ID)
	require.NoError(t, err)
	require.Len(t, byBrand, 2)
	assert.Equal(t, "Captur", byBrand[0].Name)

	_, err = cat.Where(ctx, "brand_id; drop", "x")
	assert.Error(t, err)
}

func TestClientCatalog_Validation(t *testing.T) {
	ctx := context.Background()
	clients := NewClientCatalog(setupServiceTestDB(t))

	c := &models.Client{LastName: "Trabelsi"}
	require.NoError(t, clients.Create(ctx, c))
	assert.Equal(t, models.ClientIndividual, c.Type, "type defaults to individual")

	var v validation.Violations
	require.ErrorAs(t, clients.Create(ctx, &models.Client{Type: models.ClientCompany}), &v)
	assert.Equal(t, "required", v["company_name"])

	three := []models.Driver{{LastName: "A"}, {LastName: "B"}, {LastName: "C"}}
	_, err := clients.Update(ctx, c.ID, models.ClientPatch{Drivers: &three})
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "too_many", v["drivers"])

	two := three[:2]
	got, err := clients.Update(ctx, c.ID, models.ClientPatch{Drivers: &two})
	require.NoError(t, err)
	require.Len(t, got.Drivers, 2)
	assert.Equal(t, "B", got.Drivers[1].LastName)
}

func TestVehicleCatalog_Create(t *testing.T) {
	ctx := context.Background()
	vehicles := NewVehicleCatalog(setupServiceTestDB(t))

	var v validation.Violations
	require.ErrorAs(t, vehicles.Create(ctx, &models.Vehicle{UnitPriceHT: d("-1")}), &v)
	assert.Contains(t, v, "registration")
	assert.Contains(t, v, "model_id")
	assert.Contains(t, v, "unit_price_ht")

	veh := &models.Vehicle{ModelID: "m", Registration: "1 TU 1", UnitPriceHT: d("90")}
	require.NoError(t, vehicles.Create(ctx, veh))
	got, err := vehicles.Update(ctx, veh.ID, models.VehiclePatch{Active: ptr(true)})
	require.NoError(t, err)
	assert.True(t, got.Active)
}
