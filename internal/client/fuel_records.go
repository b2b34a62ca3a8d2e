package client

import (
	"context"

	"github.com/ukydev/fuel-tracker/internal/apperror"
	"github.com/ukydev/fuel-tracker/internal/models"
	"github.com/ukydev/fuel-tracker/internal/validation"
)

// FuelRecordService wraps /vehicles/{vehicleId}/fuel-records.
type FuelRecordService struct {
	c *Client
}

// FuelRecords returns the fuel record endpoints.
func (c *Client) FuelRecords() *FuelRecordService { return &FuelRecordService{c: c} }

func recordsPath(vehicleID string) string {
	return "/vehicles/" + segment(vehicleID) + "/fuel-records"
}

// List returns the records of a vehicle in server order.
func (s *FuelRecordService) List(ctx context.Context, vehicleID string) ([]models.FuelRecord, error) {
	if err := requireID("vehicleId", vehicleID); err != nil {
		return nil, err
	}
	var records []models.FuelRecord
	if err := s.c.Get(ctx, recordsPath(vehicleID), &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.FuelRecord{}
	}
	return records, nil
}

// Create logs a refill. A zero TotalPrice is derived from PricePerLiter and
// RefillAmount before validation.
func (s *FuelRecordService) Create(ctx context.Context, vehicleID string, r models.FuelRecord) (*models.FuelRecord, error) {
	if err := requireID("vehicleId", vehicleID); err != nil {
		return nil, err
	}
	r = validation.CompleteFuelRecord(r)
	if err := validation.FuelRecord(r); err != nil {
		return nil, err
	}
	r.ID, r.VehicleID = "", ""
	var created models.FuelRecord
	if err := s.c.Post(ctx, recordsPath(vehicleID), r, &created); err != nil {
		return nil, err
	}
	return recordOrMalformed(&created)
}

func (s *FuelRecordService) Get(ctx context.Context, vehicleID, id string) (*models.FuelRecord, error) {
	if err := requireRecordIDs(vehicleID, id); err != nil {
		return nil, err
	}
	var r models.FuelRecord
	if err := s.c.Get(ctx, recordsPath(vehicleID)+"/"+segment(id), &r); err != nil {
		return nil, err
	}
	return recordOrMalformed(&r)
}

func (s *FuelRecordService) Update(ctx context.Context, vehicleID, id string, r models.FuelRecord) (*models.FuelRecord, error) {
	if err := requireRecordIDs(vehicleID, id); err != nil {
		return nil, err
	}
	r = validation.CompleteFuelRecord(r)
	if err := validation.FuelRecord(r); err != nil {
		return nil, err
	}
	var updated models.FuelRecord
	if err := s.c.Put(ctx, recordsPath(vehicleID)+"/"+segment(id), r, &updated); err != nil {
		return nil, err
	}
	return recordOrMalformed(&updated)
}

func (s *FuelRecordService) Delete(ctx context.Context, vehicleID, id string) error {
	if err := requireRecordIDs(vehicleID, id); err != nil {
		return err
	}
	return s.c.Delete(ctx, recordsPath(vehicleID)+"/"+segment(id), nil)
}

func requireRecordIDs(vehicleID, id string) error {
	if err := requireID("vehicleId", vehicleID); err != nil {
		return err
	}
	return requireID("id", id)
}

func recordOrMalformed(r *models.FuelRecord) (*models.FuelRecord, error) {
	if r.ID == "" {
		return nil, apperror.MalformedResponse(errNoData)
	}
	return r, nil
}
