package db

import (
	"context"
	"time"

	"github.com/ukydev/fuel-tracker/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFuelRecordCollection implements FuelRecordCollection for MongoDB.
type MongoFuelRecordCollection struct {
	Collection *mongo.Collection
}

// InsertFuelRecord inserts a record and sets its ID. VehicleID must be set.
func (c *MongoFuelRecordCollection) InsertFuelRecord(ctx context.Context, record *models.FuelRecord) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if err := checkID(record.VehicleID); err != nil {
		return err
	}
	now := time.Now().UTC()
	record.ID = newID()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := c.Collection.InsertOne(ctx, record); err != nil {
		record.ID = ""
		return insertErr(err)
	}
	return nil
}

// FindFuelRecords lists the records of a vehicle by date, oldest first.
// Records on the same date keep insertion order.
func (c *MongoFuelRecordCollection) FindFuelRecords(ctx context.Context, vehicleID string) ([]models.FuelRecord, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if err := checkID(vehicleID); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.FuelRecord](ctx, c.Collection, bson.M{"vehicle_id": vehicleID}, opts)
}

// FindFuelRecordByID finds one record of a vehicle.
func (c *MongoFuelRecordCollection) FindFuelRecordByID(ctx context.Context, vehicleID, id string) (*models.FuelRecord, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	filter, err := recordFilter(vehicleID, id)
	if err != nil {
		return nil, err
	}
	return findOne[models.FuelRecord](ctx, c.Collection, filter)
}

// UpdateFuelRecord replaces the measured fields of a record.
func (c *MongoFuelRecordCollection) UpdateFuelRecord(ctx context.Context, vehicleID, id string, record models.FuelRecord) error {
	if c.Collection == nil {
		return errNilCollection
	}
	filter, err := recordFilter(vehicleID, id)
	if err != nil {
		return err
	}

	set := bson.M{
		"date":                  record.Date,
		"current_estimate_km":   record.CurrentEstimateKm,
		"odometer":              record.Odometer,
		"avg_consumption":       record.AvgConsumption,
		"refill_amount":         record.RefillAmount,
		"estimated_distance_km": record.EstimatedDistanceKm,
		"price_per_liter":       record.PricePerLiter,
		"total_price":           record.TotalPrice,
		"updated_at":            time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if record.PreviousOdometer != nil {
		set["previous_odometer"] = *record.PreviousOdometer
	} else {
		update["$unset"] = bson.M{"previous_odometer": ""}
	}

	result, err := c.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFuelRecord deletes one record of a vehicle.
func (c *MongoFuelRecordCollection) DeleteFuelRecord(ctx context.Context, vehicleID, id string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	filter, err := recordFilter(vehicleID, id)
	if err != nil {
		return err
	}
	result, err := c.Collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFuelRecordsByVehicle deletes every record of a vehicle.
func (c *MongoFuelRecordCollection) DeleteFuelRecordsByVehicle(ctx context.Context, vehicleID string) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	if err := checkID(vehicleID); err != nil {
		return 0, err
	}
	result, err := c.Collection.DeleteMany(ctx, bson.M{"vehicle_id": vehicleID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func recordFilter(vehicleID, id string) (bson.M, error) {
	if err := checkID(vehicleID); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	return bson.M{"_id": id, "vehicle_id": vehicleID}, nil
}
