package db

import (
	"context"
	"time"

	"github.com/ukydev/fuel-tracker/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// InsertUser inserts a new user and sets its ID. A taken phone number
// returns ErrDuplicate.
func (c *MongoUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	if c.Collection == nil {
		return errNilCollection
	}
	now := time.Now().UTC()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, user)
	if err != nil {
		user.ID = ""
		return insertErr(err)
	}
	return nil
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	return findOne[models.User](ctx, c.Collection, bson.M{"_id": id})
}

// FindUserByPhone finds a user by their phone number
func (c *MongoUserCollection) FindUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	return findOne[models.User](ctx, c.Collection, bson.M{"phone": phone})
}

// FindUserByResetTokenHash finds the user holding a pending reset token.
// Expiry is checked by the caller.
func (c *MongoUserCollection) FindUserByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if hash == "" {
		return nil, ErrNotFound
	}
	return findOne[models.User](ctx, c.Collection, bson.M{"reset_token_hash": hash})
}

// SetResetToken stores a reset token hash with its expiry.
func (c *MongoUserCollection) SetResetToken(ctx context.Context, id, hash string, expiry time.Time) error {
	return c.update(ctx, id, bson.M{"$set": bson.M{
		"reset_token_hash":   hash,
		"reset_token_expiry": expiry,
		"updated_at":         time.Now().UTC(),
	}})
}

// UpdatePassword replaces the password hash and clears any reset token.
func (c *MongoUserCollection) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return c.update(ctx, id, bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"reset_token_hash": "", "reset_token_expiry": ""},
	})
}

func (c *MongoUserCollection) update(ctx context.Context, id string, update bson.M) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if err := checkID(id); err != nil {
		return err
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
