package db

import (
	"context"
	"time"

	"github.com/ukydev/fuel-tracker/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record and sets its ID.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if c.Collection == nil {
		return errNilCollection
	}
	now := time.Now().UTC()
	vehicle.ID = newID()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	if _, err := c.Collection.InsertOne(ctx, vehicle); err != nil {
		vehicle.ID = ""
		return insertErr(err)
	}
	return nil
}

// FindVehiclesByOwner lists the vehicles registered by userID, newest first.
func (c *MongoVehicleCollection) FindVehiclesByOwner(ctx context.Context, userID string) ([]models.Vehicle, error) {
	return c.find(ctx, bson.M{"user_id": userID})
}

// FindVehiclesByDriver lists the vehicles userID is assigned to.
func (c *MongoVehicleCollection) FindVehiclesByDriver(ctx context.Context, userID string) ([]models.Vehicle, error) {
	return c.find(ctx, bson.M{"driver_ids": userID})
}

func (c *MongoVehicleCollection) find(ctx context.Context, filter bson.M) ([]models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findAll[models.Vehicle](ctx, c.Collection, filter, opts)
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	return findOne[models.Vehicle](ctx, c.Collection, bson.M{"_id": id})
}

// UpdateVehicle updates the editable fields of a vehicle. The owner and
// creation time are kept, and so are the drivers when vehicle.DriverIDs is
// nil. A non-nil empty slice removes every driver.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if err := checkID(id); err != nil {
		return err
	}

	set := bson.M{
		"plate":        vehicle.Plate,
		"make":         vehicle.Make,
		"model":        vehicle.Model,
		"engine_type":  vehicle.EngineType,
		"year_of_make": vehicle.YearOfMake,
		"updated_at":   time.Now().UTC(),
	}
	if vehicle.DriverIDs != nil {
		set["driver_ids"] = vehicle.DriverIDs
	}
	update := bson.M{"$set": set}
	if vehicle.AvgConsumption != nil {
		set["avg_consumption"] = *vehicle.AvgConsumption
	} else {
		update["$unset"] = bson.M{"avg_consumption": ""}
	}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if err := checkID(id); err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
