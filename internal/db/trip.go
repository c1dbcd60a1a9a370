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

// TripCollection defines the interface for trip (driver booking) operations.
type TripCollection interface {
	InsertTrip(ctx context.Context, trip models.Trip) (primitive.ObjectID, error)
	FindTripByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error)
	FindTrips(ctx context.Context, filter bson.M) ([]models.Trip, error)
	UpdateTripStatus(ctx context.Context, id primitive.ObjectID, status models.TripStatus, note string) error
	UpdateTrip(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	DeleteTrip(ctx context.Context, id primitive.ObjectID) error
	CountActiveTripsForVehicle(ctx context.Context, vehicleID, excludeTrip primitive.ObjectID) (int64, error)
}

// MongoTripCollection implements TripCollection for MongoDB
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// InsertTrip inserts a trip record and returns its generated id.
func (c *MongoTripCollection) InsertTrip(ctx context.Context, trip models.Trip) (primitive.ObjectID, error) {
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, trip)
	if err != nil {
		return primitive.NilObjectID, translate(err, "trip")
	}
	return trip.ID, nil
}

// FindTripByID finds a trip by its ID.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	var trip models.Trip
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip)
	if err != nil {
		return nil, translate(err, "trip")
	}
	return &trip, nil
}

// FindTrips queries trip records from the collection.
func (c *MongoTripCollection) FindTrips(ctx context.Context, filter bson.M) ([]models.Trip, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "trip")
	}
	defer cursor.Close(ctx)

	var trips []models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, translate(err, "trip")
	}
	return trips, nil
}

// UpdateTripStatus sets the trip status, optionally appending an audit note.
func (c *MongoTripCollection) UpdateTripStatus(ctx context.Context, id primitive.ObjectID, status models.TripStatus, note string) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	if note != "" {
		update["$set"].(bson.M)["notes"] = note
	}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err, "trip")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "trip not found")
	}
	return nil
}

// UpdateTrip updates arbitrary trip fields (reassignment, actual times).
func (c *MongoTripCollection) UpdateTrip(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(err, "trip")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "trip not found")
	}
	return nil
}

// DeleteTrip deletes a trip by its ID.
func (c *MongoTripCollection) DeleteTrip(ctx context.Context, id primitive.ObjectID) error {
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "trip")
	}
	if result.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, "trip not found")
	}
	return nil
}

// CountActiveTripsForVehicle counts trips still holding the vehicle,
// optionally excluding one trip (the one currently being closed).
func (c *MongoTripCollection) CountActiveTripsForVehicle(ctx context.Context, vehicleID, excludeTrip primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"vehicle_id": vehicleID,
		"status":     bson.M{"$in": bson.A{models.TripScheduled, models.TripInProgress, models.TripDelayed}},
	}
	if !excludeTrip.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeTrip}
	}

	count, err := c.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, translate(err, "trip")
	}
	return count, nil
}
