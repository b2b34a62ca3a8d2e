package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fuel-tracker/internal/db"
	"github.com/ukydev/fuel-tracker/internal/events"
	"github.com/ukydev/fuel-tracker/internal/models"
	"github.com/ukydev/fuel-tracker/internal/validation"
)

// FuelRecordHandler serves /vehicles/{vehicleId}/fuel-records. The owner and
// assigned drivers of the vehicle have full access.
type FuelRecordHandler struct {
	vehicles  db.VehicleCollection
	records   db.FuelRecordCollection
	publisher events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewFuelRecordHandler(vehicles db.VehicleCollection, records db.FuelRecordCollection, publisher events.Publisher, log logrus.FieldLogger) *FuelRecordHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &FuelRecordHandler{
		vehicles:  vehicles,
		records:   records,
		publisher: publisher,
		log:       orStandardLogger(log),
		now:       time.Now,
	}
}

// List returns the vehicle's records, oldest first.
func (h *FuelRecordHandler) List(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	records, err := h.records.FindFuelRecords(r.Context(), vehicle.ID)
	if err != nil {
		writeStoreError(w, r, h.log, err, "Fuel records not found")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

// Create logs a refill. A missing total price is derived from the price per
// liter and the amount.
func (h *FuelRecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	var record models.FuelRecord
	if !decodeJSON(w, r, &record) {
		return
	}
	record = validation.CompleteFuelRecord(record)
	if err := validation.FuelRecord(record); err != nil {
		writeValidation(w, err)
		return
	}

	record.ID = ""
	record.VehicleID = vehicle.ID
	if err := h.records.InsertFuelRecord(r.Context(), &record); err != nil {
		writeStoreError(w, r, h.log, err, "Vehicle not found")
		return
	}

	h.publish(r.Context(), events.ActionCreated, vehicle.ID, record.ID, &record)
	writeJSON(w, http.StatusCreated, record)
}

func (h *FuelRecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	record, err := h.records.FindFuelRecordByID(r.Context(), vehicle.ID, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, r, h.log, err, "Fuel record not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *FuelRecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var record models.FuelRecord
	if !decodeJSON(w, r, &record) {
		return
	}
	record = validation.CompleteFuelRecord(record)
	if err := validation.FuelRecord(record); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.records.UpdateFuelRecord(r.Context(), vehicle.ID, id, record); err != nil {
		writeStoreError(w, r, h.log, err, "Fuel record not found")
		return
	}

	updated, err := h.records.FindFuelRecordByID(r.Context(), vehicle.ID, id)
	if err != nil {
		writeStoreError(w, r, h.log, err, "Fuel record not found")
		return
	}
	h.publish(r.Context(), events.ActionUpdated, vehicle.ID, id, updated)
	writeJSON(w, http.StatusOK, updated)
}

func (h *FuelRecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := h.vehicle(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.records.DeleteFuelRecord(r.Context(), vehicle.ID, id); err != nil {
		writeStoreError(w, r, h.log, err, "Fuel record not found")
		return
	}
	h.publish(r.Context(), events.ActionDeleted, vehicle.ID, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// vehicle loads the {vehicleId} route variable for an owner or driver.
func (h *FuelRecordHandler) vehicle(w http.ResponseWriter, r *http.Request) (*models.Vehicle, bool) {
	claims, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), mux.Vars(r)["vehicleId"])
	if err != nil {
		writeStoreError(w, r, h.log, err, "Vehicle not found")
		return nil, false
	}
	if !vehicle.IsAccessibleBy(claims.UserID) {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return nil, false
	}
	return vehicle, true
}

// publish reports a change. A failed publish is logged and does not fail the
// request, which has already been committed.
func (h *FuelRecordHandler) publish(ctx context.Context, action, vehicleID, recordID string, record *models.FuelRecord) {
	event := models.FuelRecordEvent{
		Action:    action,
		VehicleID: vehicleID,
		RecordID:  recordID,
		Record:    record,
		At:        h.now().UTC(),
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"vehicle_id": vehicleID,
			"record_id":  recordID,
			"action":     action,
		}).Warn("Failed to publish fuel record event")
	}
}
