package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fuel-tracker/internal/db"
	"github.com/ukydev/fuel-tracker/internal/models"
	"github.com/ukydev/fuel-tracker/internal/validation"
)

// VehicleHandler serves /vehicles. Only the owner may change or delete a
// vehicle; assigned drivers may read it.
type VehicleHandler struct {
	vehicles db.VehicleCollection
	records  db.FuelRecordCollection
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewVehicleHandler(vehicles db.VehicleCollection, records db.FuelRecordCollection, log logrus.FieldLogger) *VehicleHandler {
	return &VehicleHandler{
		vehicles: vehicles,
		records:  records,
		log:      orStandardLogger(log),
		now:      time.Now,
	}
}

// ListOwned returns the caller's vehicles.
func (h *VehicleHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	vehicles, err := h.vehicles.FindVehiclesByOwner(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, r, h.log, err, "Vehicles not found")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(vehicles))
}

// ListAssigned returns the vehicles the caller drives.
func (h *VehicleHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	vehicles, err := h.vehicles.FindVehiclesByDriver(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, r, h.log, err, "Vehicles not found")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(vehicles))
}

func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var vehicle models.Vehicle
	if !decodeJSON(w, r, &vehicle) {
		return
	}
	if err := validation.Vehicle(vehicle, h.now()); err != nil {
		writeValidation(w, err)
		return
	}

	vehicle.ID = ""
	vehicle.UserID = claims.UserID
	if err := h.vehicles.InsertVehicle(r.Context(), &vehicle); err != nil {
		writeStoreError(w, r, h.log, err, "Vehicle not found")
		return
	}

	h.log.WithFields(logrus.Fields{
		"vehicle_id": vehicle.ID,
		"user_id":    claims.UserID,
	}).Info("Created vehicle")
	writeJSON(w, http.StatusCreated, vehicle)
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	vehicle, ok := h.load(w, r, claims, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	existing, ok := h.load(w, r, claims, true)
	if !ok {
		return
	}

	var update models.Vehicle
	if !decodeJSON(w, r, &update) {
		return
	}
	if err := validation.Vehicle(update, h.now()); err != nil {
		writeValidation(w, err)
		return
	}
	// omitted driverIds keep the current assignments; [] clears them
	if update.DriverIDs == nil {
		update.DriverIDs = existing.DriverIDs
	}
	if err := h.vehicles.UpdateVehicle(r.Context(), existing.ID, update); err != nil {
		writeStoreError(w, r, h.log, err, "Vehicle not found")
		return
	}

	update.ID = existing.ID
	update.UserID = existing.UserID
	update.CreatedAt = existing.CreatedAt
	writeJSON(w, http.StatusOK, update)
}

// Delete removes a vehicle and all of its fuel records.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	vehicle, ok := h.load(w, r, claims, true)
	if !ok {
		return
	}

	removed, err := h.records.DeleteFuelRecordsByVehicle(r.Context(), vehicle.ID)
	if err != nil {
		writeStoreError(w, r, h.log, err, "Vehicle not found")
		return
	}
	if err := h.vehicles.DeleteVehicle(r.Context(), vehicle.ID); err != nil {
		writeStoreError(w, r, h.log, err, "Vehicle not found")
		return
	}

	h.log.WithFields(logrus.Fields{
		"vehicle_id":      vehicle.ID,
		"removed_records": removed,
	}).Info("Deleted vehicle")
	w.WriteHeader(http.StatusNoContent)
}

// load fetches the vehicle named by the {id} route variable and checks the
// caller may see it, or may change it when ownerOnly is set.
func (h *VehicleHandler) load(w http.ResponseWriter, r *http.Request, claims *models.Claims, ownerOnly bool) (*models.Vehicle, bool) {
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, r, h.log, err, "Vehicle not found")
		return nil, false
	}
	allowed := vehicle.IsOwnedBy(claims.UserID)
	if !ownerOnly {
		allowed = vehicle.IsAccessibleBy(claims.UserID)
	}
	if !allowed {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return nil, false
	}
	return vehicle, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
