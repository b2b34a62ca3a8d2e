package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UsersCollection       = "users"
	VehiclesCollection    = "vehicles"
	FuelRecordsCollection = "fuel_records"
)

// ConnectMongo connects to MongoDB at uri and pings it.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store groups the collections used by the API.
type Store struct {
	Users       *MongoUserCollection
	Vehicles    *MongoVehicleCollection
	FuelRecords *MongoFuelRecordCollection
}

// NewStore binds the collections of database.
func NewStore(database *mongo.Database) *Store {
	return &Store{
		Users:       &MongoUserCollection{Collection: database.Collection(UsersCollection)},
		Vehicles:    &MongoVehicleCollection{Collection: database.Collection(VehiclesCollection)},
		FuelRecords: &MongoFuelRecordCollection{Collection: database.Collection(FuelRecordsCollection)},
	}
}

// EnsureIndexes creates the indexes the queries rely on. Phone numbers are
// unique.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if s.Users.Collection == nil || s.Vehicles.Collection == nil || s.FuelRecords.Collection == nil {
		return errNilCollection
	}
	if _, err := s.Users.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "reset_token_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
	}); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if _, err := s.Vehicles.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "driver_ids", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("vehicles indexes: %w", err)
	}
	if _, err := s.FuelRecords.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "date", Value: 1}},
	}); err != nil {
		return fmt.Errorf("fuel_records indexes: %w", err)
	}
	return nil
}

// newID returns a fresh document id in ObjectID hex form.
func newID() string {
	return primitive.NewObjectID().Hex()
}

func checkID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// findAll runs filter and decodes every document.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// findOne decodes the single match of filter, mapping no match to ErrNotFound.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func insertErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
