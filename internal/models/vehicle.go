package models

import (
	"fmt"
	"slices"
	"time"
)

// EngineType is the propulsion of a vehicle.
type EngineType string

const (
	EngineGasoline EngineType = "Gasoline"
	EngineDiesel   EngineType = "Diesel"
	EngineHybrid   EngineType = "Hybrid"
	EngineElectric EngineType = "Electric"
	EngineOther    EngineType = "Other"
)

// MinYearOfMake is the oldest accepted year of manufacture.
const MinYearOfMake = 1900

// IsValidEngineType checks if an engine type is one of the known values
func IsValidEngineType(e EngineType) bool {
	switch e {
	case EngineGasoline, EngineDiesel, EngineHybrid, EngineElectric, EngineOther:
		return true
	default:
		return false
	}
}

// Vehicle represents a tracked vehicle.
type Vehicle struct {
	ID         string     `bson:"_id,omitempty" json:"id,omitempty"`
	Plate      string     `bson:"plate" json:"plate"`
	Make       string     `bson:"make" json:"make"`
	Model      string     `bson:"model" json:"model"`
	EngineType EngineType `bson:"engine_type" json:"engineType"`
	YearOfMake int        `bson:"year_of_make" json:"yearOfMake"`
	UserID     string     `bson:"user_id" json:"userId,omitempty"`
	DriverIDs  []string   `bson:"driver_ids,omitempty" json:"driverIds,omitempty"`
	// AvgConsumption is a reference figure in L/100km, if known.
	AvgConsumption *float64  `bson:"avg_consumption,omitempty" json:"avgConsumption,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"-"`
	UpdatedAt      time.Time `bson:"updated_at" json:"-"`
}

// DisplayName returns "Make Model (Plate)".
func (v *Vehicle) DisplayName() string {
	return fmt.Sprintf("%s %s (%s)", v.Make, v.Model, v.Plate)
}

// IsOwnedBy reports whether userID registered the vehicle.
func (v *Vehicle) IsOwnedBy(userID string) bool {
	return userID != "" && v.UserID == userID
}

// IsAccessibleBy reports whether userID owns or drives the vehicle.
func (v *Vehicle) IsAccessibleBy(userID string) bool {
	return v.IsOwnedBy(userID) || (userID != "" && slices.Contains(v.DriverIDs, userID))
}
