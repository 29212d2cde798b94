package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
)

// UnknownLabel replaces a reference that cannot be resolved.
const UnknownLabel = "Unknown"

// fleetIndex resolves vehicle, model, brand and client references in memory.
type fleetIndex struct {
	vehicles map[string]models.Vehicle
	vmodels  map[string]models.VehicleModel
	brands   map[string]models.Brand
	clients  map[string]models.Client
}

type fleetReader struct {
	vehicles *store.Collection[models.Vehicle]
	vmodels  *store.Collection[models.VehicleModel]
	brands   *store.Collection[models.Brand]
	clients  *store.Collection[models.Client]
}

func newFleetReader(db *gorm.DB) fleetReader {
	return fleetReader{
		vehicles: store.New[models.Vehicle](db),
		vmodels:  store.New[models.VehicleModel](db),
		brands:   store.New[models.Brand](db),
		clients:  store.New[models.Client](db),
	}
}

// load reads the four reference collections in parallel.
func (f fleetReader) load(ctx context.Context) (*fleetIndex, error) {
	var (
		vs []models.Vehicle
		ms []models.VehicleModel
		bs []models.Brand
		cs []models.Client
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { vs, err = f.vehicles.All(gctx, "registration"); return })
	g.Go(func() (err error) { ms, err = f.vmodels.All(gctx, "name"); return })
	g.Go(func() (err error) { bs, err = f.brands.All(gctx, "name"); return })
	g.Go(func() (err error) { cs, err = f.clients.All(gctx, "last_name"); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load fleet: %w", err)
	}
	ix := &fleetIndex{
		vehicles: make(map[string]models.Vehicle, len(vs)),
		vmodels:  make(map[string]models.VehicleModel, len(ms)),
		brands:   make(map[string]models.Brand, len(bs)),
		clients:  make(map[string]models.Client, len(cs)),
	}
	for _, v := range vs {
		ix.vehicles[v.ID] = v
	}
	for _, m := range ms {
		ix.vmodels[m.ID] = m
	}
	for _, b := range bs {
		ix.brands[b.ID] = b
	}
	for _, c := range cs {
		ix.clients[c.ID] = c
	}
	return ix, nil
}

// brandID returns the brand of a vehicle, or "" when unresolved.
func (ix *fleetIndex) brandID(vehicleID string) string {
	v, ok := ix.vehicles[vehicleID]
	if !ok {
		return ""
	}
	return ix.vmodels[v.ModelID].BrandID
}

// brandModel renders "Brand Model", using UnknownLabel for missing parts.
func (ix *fleetIndex) brandModel(vehicleID string) string {
	v, ok := ix.vehicles[vehicleID]
	if !ok {
		return UnknownLabel
	}
	m, ok := ix.vmodels[v.ModelID]
	if !ok {
		return UnknownLabel
	}
	brand := UnknownLabel
	if b, ok := ix.brands[m.BrandID]; ok {
		brand = b.Name
	}
	return brand + " " + m.Name
}

// vehicleLabel renders "Brand Model (REG)".
func (ix *fleetIndex) vehicleLabel(vehicleID string) string {
	v, ok := ix.vehicles[vehicleID]
	if !ok {
		return UnknownLabel
	}
	return fmt.Sprintf("%s (%s)", ix.brandModel(vehicleID), v.Registration)
}

// clientName renders the client display name.
func (ix *fleetIndex) clientName(clientID string) string {
	c, ok := ix.clients[clientID]
	if !ok {
		return UnknownLabel
	}
	if n := c.DisplayName(); n != "" {
		return n
	}
	return UnknownLabel
}
