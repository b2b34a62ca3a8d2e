package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fuel-tracker/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrInvalidID = errors.New("invalid id")

	errNilCollection = errors.New("mongo collection is nil")
)

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*models.User, error)
	FindUserByResetTokenHash(ctx context.Context, hash string) (*models.User, error)
	SetResetToken(ctx context.Context, id, hash string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehiclesByOwner(ctx context.Context, userID string) ([]models.Vehicle, error)
	FindVehiclesByDriver(ctx context.Context, userID string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

// FuelRecordCollection defines the interface for fuel record operations.
// Every record is addressed through its vehicle.
type FuelRecordCollection interface {
	InsertFuelRecord(ctx context.Context, record *models.FuelRecord) error
	FindFuelRecords(ctx context.Context, vehicleID string) ([]models.FuelRecord, error)
	FindFuelRecordByID(ctx context.Context, vehicleID, id string) (*models.FuelRecord, error)
	UpdateFuelRecord(ctx context.Context, vehicleID, id string, record models.FuelRecord) error
	DeleteFuelRecord(ctx context.Context, vehicleID, id string) error
	DeleteFuelRecordsByVehicle(ctx context.Context, vehicleID string) (int64, error)
}

var (
	_ UserCollection       = (*MongoUserCollection)(nil)
	_ VehicleCollection    = (*MongoVehicleCollection)(nil)
	_ FuelRecordCollection = (*MongoFuelRecordCollection)(nil)
)
