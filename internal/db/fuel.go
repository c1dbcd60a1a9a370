package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/models"
)

// FuelCollection defines the interface for fuel record operations.
type FuelCollection interface {
	InsertFuel(ctx context.Context, record models.Fuel) (primitive.ObjectID, error)
	FindFuelByID(ctx context.Context, id primitive.ObjectID) (*models.Fuel, error)
	FindFuel(ctx context.Context, filter bson.M) ([]models.Fuel, error)
	UpdateFuel(ctx context.Context, id primitive.ObjectID, record models.Fuel) error
	VerifyFuel(ctx context.Context, id, verifiedBy primitive.ObjectID) error
	DeleteFuel(ctx context.Context, id primitive.ObjectID) error
}

// MongoFuelCollection implements FuelCollection for MongoDB
type MongoFuelCollection struct {
	Collection *mongo.Collection
}

// InsertFuel inserts a fuel record, recomputing the derived total first.
func (c *MongoFuelCollection) InsertFuel(ctx context.Context, record models.Fuel) (primitive.ObjectID, error) {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.ComputeTotalCost()
	if record.FuelingDate.IsZero() {
		record.FuelingDate = time.Now()
	}
	if record.FuelingType == "" {
		record.FuelingType = "full"
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, translate(err, "fuel record")
	}
	return record.ID, nil
}

// FindFuelByID finds a fuel record by its ID.
func (c *MongoFuelCollection) FindFuelByID(ctx context.Context, id primitive.ObjectID) (*models.Fuel, error) {
	var record models.Fuel
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		return nil, translate(err, "fuel record")
	}
	return &record, nil
}

// FindFuel queries fuel records from the collection.
func (c *MongoFuelCollection) FindFuel(ctx context.Context, filter bson.M) ([]models.Fuel, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "fuel record")
	}
	defer cursor.Close(ctx)

	var records []models.Fuel
	if err := cursor.All(ctx, &records); err != nil {
		return nil, translate(err, "fuel record")
	}
	return records, nil
}

// UpdateFuel replaces a fuel record, recomputing the derived total so it
// always reflects the current amount and unit cost.
func (c *MongoFuelCollection) UpdateFuel(ctx context.Context, id primitive.ObjectID, record models.Fuel) error {
	record.ID = id
	record.ComputeTotalCost()
	record.UpdatedAt = time.Now()

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": id}, record)
	if err != nil {
		return translate(err, "fuel record")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "fuel record not found")
	}
	return nil
}

// VerifyFuel marks a fuel record as verified.
func (c *MongoFuelCollection) VerifyFuel(ctx context.Context, id, verifiedBy primitive.ObjectID) error {
	now := time.Now()
	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"is_verified": true,
			"verified_by": verifiedBy,
			"verified_at": now,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return translate(err, "fuel record")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "fuel record not found")
	}
	return nil
}

// DeleteFuel deletes a fuel record by its ID.
func (c *MongoFuelCollection) DeleteFuel(ctx context.Context, id primitive.ObjectID) error {
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "fuel record")
	}
	if result.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, "fuel record not found")
	}
	return nil
}
