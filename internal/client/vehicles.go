package client

import (
	"context"

	"github.com/ukydev/fuel-tracker/internal/apperror"
	"github.com/ukydev/fuel-tracker/internal/models"
	"github.com/ukydev/fuel-tracker/internal/validation"
)

// VehicleService wraps the /vehicles endpoints.
type VehicleService struct {
	c *Client
}

// Vehicles returns the vehicle endpoints.
func (c *Client) Vehicles() *VehicleService { return &VehicleService{c: c} }

// ListOwned lists the vehicles registered by the current user.
func (s *VehicleService) ListOwned(ctx context.Context) ([]models.Vehicle, error) {
	return s.list(ctx, "/vehicles/owner")
}

// ListAssigned lists the vehicles the current user drives.
func (s *VehicleService) ListAssigned(ctx context.Context) ([]models.Vehicle, error) {
	return s.list(ctx, "/vehicles/driver")
}

func (s *VehicleService) list(ctx context.Context, path string) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := s.c.Get(ctx, path, &vehicles); err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// Create registers a vehicle. The id and owner are assigned by the server.
func (s *VehicleService) Create(ctx context.Context, v models.Vehicle) (*models.Vehicle, error) {
	if err := validation.Vehicle(v, s.c.now()); err != nil {
		return nil, err
	}
	v.ID, v.UserID = "", ""
	var created models.Vehicle
	if err := s.c.Post(ctx, "/vehicles", v, &created); err != nil {
		return nil, err
	}
	return vehicleOrMalformed(&created)
}

func (s *VehicleService) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	var v models.Vehicle
	if err := s.c.Get(ctx, "/vehicles/"+segment(id), &v); err != nil {
		return nil, err
	}
	return vehicleOrMalformed(&v)
}

func (s *VehicleService) Update(ctx context.Context, id string, v models.Vehicle) (*models.Vehicle, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	if err := validation.Vehicle(v, s.c.now()); err != nil {
		return nil, err
	}
	var updated models.Vehicle
	if err := s.c.Put(ctx, "/vehicles/"+segment(id), v, &updated); err != nil {
		return nil, err
	}
	return vehicleOrMalformed(&updated)
}

func (s *VehicleService) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	return s.c.Delete(ctx, "/vehicles/"+segment(id), nil)
}

func vehicleOrMalformed(v *models.Vehicle) (*models.Vehicle, error) {
	if v.ID == "" {
		return nil, apperror.MalformedResponse(errNoData)
	}
	return v, nil
}
