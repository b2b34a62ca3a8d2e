package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ukydev/fuel-tracker/internal/db"
	"github.com/ukydev/fuel-tracker/internal/events"
	"github.com/ukydev/fuel-tracker/internal/models"
)

type fuelFixture struct {
	handler   *FuelRecordHandler
	vehicles  *MockVehicleCollection
	records   *MockFuelRecordCollection
	publisher *MockPublisher
	hook      *test.Hook
}

func newFuelFixture() *fuelFixture {
	f := &fuelFixture{
		vehicles:  new(MockVehicleCollection),
		records:   new(MockFuelRecordCollection),
		publisher: new(MockPublisher),
	}
	logger, hook := test.NewNullLogger()
	f.hook = hook
	f.handler = NewFuelRecordHandler(f.vehicles, f.records, f.publisher, logger)
	f.handler.now = func() time.Time { return time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC) }
	f.vehicles.On("FindVehicleByID", mock.Anything, "v1").Return(sampleVehicle(), nil)
	return f
}

func sampleRecord() models.FuelRecord {
	return models.FuelRecord{
		Date:                models.NewDate(2024, time.May, 4),
		CurrentEstimateKm:   80,
		Odometer:            12000,
		AvgConsumption:      6.2,
		RefillAmount:        40,
		EstimatedDistanceKm: 640,
		PricePerLiter:       1.5,
	}
}

var recordVars = map[string]string{"vehicleId": "v1", "id": "r1"}

func TestFuelRecordHandler_List(t *testing.T) {
	f := newFuelFixture()
	f.records.On("FindFuelRecords", mock.Anything, "v1").Return([]models.FuelRecord{sampleRecord()}, nil)

	w := httptest.NewRecorder()
	f.handler.List(w, newRequest(t, "GET", "/api/vehicles/v1/fuel-records", nil, map[string]string{"vehicleId": "v1"}, driverID))

	assert.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[[]models.FuelRecord](t, w)
	assert.Len(t, got, 1)
	assert.Equal(t, "2024-05-04", got[0].Date.String())
}

func TestFuelRecordHandler_StrangerIsForbidden(t *testing.T) {
	f := newFuelFixture()

	w := httptest.NewRecorder()
	f.handler.List(w, newRequest(t, "GET", "/api/vehicles/v1/fuel-records", nil, map[string]string{"vehicleId": "v1"}, otherID))

	assert.Equal(t, http.StatusForbidden, w.Code)
	f.records.AssertNotCalled(t, "FindFuelRecords", mock.Anything, mock.Anything)
}

func TestFuelRecordHandler_Create(t *testing.T) {
	f := newFuelFixture()
	f.records.On("InsertFuelRecord", mock.Anything, mock.MatchedBy(func(r *models.FuelRecord) bool {
		return r.VehicleID == "v1" && r.TotalPrice == 60
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e models.FuelRecordEvent) bool {
		return e.Action == events.ActionCreated && e.VehicleID == "v1" && e.RecordID == "r-new" && e.Record != nil
	})).Return(nil)

	w := httptest.NewRecorder()
	f.handler.Create(w, newRequest(t, "POST", "/api/vehicles/v1/fuel-records", sampleRecord(), map[string]string{"vehicleId": "v1"}, ownerID))

	assert.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[models.FuelRecord](t, w)
	assert.Equal(t, "r-new", created.ID)
	assert.Equal(t, 60.0, created.TotalPrice)
	f.records.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestFuelRecordHandler_CreateRejectsInvalid(t *testing.T) {
	f := newFuelFixture()
	record := sampleRecord()
	record.TotalPrice = 75

	w := httptest.NewRecorder()
	f.handler.Create(w, newRequest(t, "POST", "/api/vehicles/v1/fuel-records", record, map[string]string{"vehicleId": "v1"}, ownerID))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "total price must be equal to price per liter * refill amount", messageOf(t, w))
	f.records.AssertNotCalled(t, "InsertFuelRecord", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestFuelRecordHandler_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFuelFixture()
	f.records.On("DeleteFuelRecord", mock.Anything, "v1", "r1").Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

	w := httptest.NewRecorder()
	f.handler.Delete(w, newRequest(t, "DELETE", "/api/vehicles/v1/fuel-records/r1", nil, recordVars, ownerID))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, logrus.WarnLevel, f.hook.LastEntry().Level)
	assert.Equal(t, events.ActionDeleted, f.hook.LastEntry().Data["action"])
}

func TestFuelRecordHandler_Update(t *testing.T) {
	f := newFuelFixture()
	stored := sampleRecord()
	stored.ID, stored.VehicleID, stored.TotalPrice = "r1", "v1", 60
	f.records.On("UpdateFuelRecord", mock.Anything, "v1", "r1", mock.Anything).Return(nil)
	f.records.On("FindFuelRecordByID", mock.Anything, "v1", "r1").Return(&stored, nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e models.FuelRecordEvent) bool {
		return e.Action == events.ActionUpdated
	})).Return(nil)

	w := httptest.NewRecorder()
	f.handler.Update(w, newRequest(t, "PUT", "/api/vehicles/v1/fuel-records/r1", sampleRecord(), recordVars, driverID))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", decodeBody[models.FuelRecord](t, w).ID)
	f.publisher.AssertExpectations(t)
}

func TestFuelRecordHandler_GetNotFound(t *testing.T) {
	f := newFuelFixture()
	f.records.On("FindFuelRecordByID", mock.Anything, "v1", "r1").Return(nil, db.ErrNotFound)

	w := httptest.NewRecorder()
	f.handler.Get(w, newRequest(t, "GET", "/api/vehicles/v1/fuel-records/r1", nil, recordVars, ownerID))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Fuel record not found", messageOf(t, w))
}
