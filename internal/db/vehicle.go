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

// VehicleCollection defines the interface for vehicle data operations.
// UpdateStatusIf is the concurrency guard for the vehicle state machine: it
// transitions status only when the document still carries the expected
// pre-state, so two racing claims on the same vehicle resolve to exactly
// one winner.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicleByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error)
	FindVehicleByRegistration(ctx context.Context, registration string) (*models.Vehicle, error)
	FindVehicles(ctx context.Context, filter bson.M) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from, to models.VehicleStatus) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.VehicleStatus) error
	UpdateLocation(ctx context.Context, registration string, location models.Location) error
	DeleteVehicle(ctx context.Context, id primitive.ObjectID) error
}

// MongoVehicleCollection implements VehicleCollection for MongoDB
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record. New vehicles always start available.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	vehicle.Status = models.VehicleAvailable
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, vehicle)
	return translate(err, "vehicle")
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle)
	if err != nil {
		return nil, translate(err, "vehicle")
	}
	return &vehicle, nil
}

// FindVehicleByRegistration finds a vehicle by its registration number.
func (c *MongoVehicleCollection) FindVehicleByRegistration(ctx context.Context, registration string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := c.Collection.FindOne(ctx, bson.M{"registration": registration}).Decode(&vehicle)
	if err != nil {
		return nil, translate(err, "vehicle")
	}
	return &vehicle, nil
}

// FindVehicles queries vehicle records from the collection.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, filter bson.M) ([]models.Vehicle, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "vehicle")
	}
	defer cursor.Close(ctx)

	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, translate(err, "vehicle")
	}
	return vehicles, nil
}

// UpdateVehicle updates non-status fields of a vehicle.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(err, "vehicle")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "vehicle not found")
	}
	return nil
}

// UpdateStatusIf atomically transitions the vehicle status from an expected
// pre-state. A vehicle that exists but is no longer in the expected state
// yields a state error and no mutation.
func (c *MongoVehicleCollection) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from, to models.VehicleStatus) error {
	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}},
	)
	if err != nil {
		return translate(err, "vehicle")
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing vehicle from a lost race.
		count, err := c.Collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return translate(err, "vehicle")
		}
		if count == 0 {
			return apperr.New(apperr.KindNotFound, "vehicle not found")
		}
		return apperr.Newf(apperr.KindState, "vehicle is not %s", from)
	}
	return nil
}

// SetStatus sets the vehicle status unconditionally. Reserved for the
// retire override, which is legal from any state.
func (c *MongoVehicleCollection) SetStatus(ctx context.Context, id primitive.ObjectID, status models.VehicleStatus) error {
	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return translate(err, "vehicle")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "vehicle not found")
	}
	return nil
}

// UpdateLocation applies a tracker location ping to the vehicle.
func (c *MongoVehicleCollection) UpdateLocation(ctx context.Context, registration string, location models.Location) error {
	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"registration": registration},
		bson.M{"$set": bson.M{"current_location": location, "updated_at": time.Now()}},
	)
	if err != nil {
		return translate(err, "vehicle")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "vehicle not found")
	}
	return nil
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id primitive.ObjectID) error {
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "vehicle")
	}
	if result.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, "vehicle not found")
	}
	return nil
}
