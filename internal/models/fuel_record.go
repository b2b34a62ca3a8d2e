package models

import "time"

// FuelRecord is one refill of a vehicle.
type FuelRecord struct {
	ID        string `bson:"_id,omitempty" json:"id,omitempty"`
	VehicleID string `bson:"vehicle_id" json:"vehicleId,omitempty"`
	Date      Date   `bson:"date" json:"date"`
	// CurrentEstimateKm is the trip computer range before the refill.
	CurrentEstimateKm float64 `bson:"current_estimate_km" json:"currentEstimateKm"`
	Odometer          float64 `bson:"odometer" json:"odometer"` // in kilometers
	// AvgConsumption is the L/100km reported by the vehicle at refill time.
	AvgConsumption float64 `bson:"avg_consumption" json:"avgConsumption"`
	RefillAmount   float64 `bson:"refill_amount" json:"refillAmount"` // in liters
	// EstimatedDistanceKm is the trip computer range after the refill.
	EstimatedDistanceKm float64   `bson:"estimated_distance_km" json:"estimatedDistanceKm"`
	PricePerLiter       float64   `bson:"price_per_liter" json:"pricePerLiter"`
	TotalPrice          float64   `bson:"total_price" json:"totalPrice"`
	PreviousOdometer    *float64  `bson:"previous_odometer,omitempty" json:"previousOdometer,omitempty"`
	CreatedAt           time.Time `bson:"created_at" json:"-"`
	UpdatedAt           time.Time `bson:"updated_at" json:"-"`
}

// FuelRecordEvent is published when a vehicle's fuel records change.
type FuelRecordEvent struct {
	Action    string      `json:"action"` // "created", "updated", "deleted"
	VehicleID string      `json:"vehicleId"`
	RecordID  string      `json:"recordId"`
	Record    *FuelRecord `json:"record,omitempty"`
	At        time.Time   `json:"at"`
}
