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

// Ledger collections hold the append-mostly entities: accidents, costs,
// parking sessions and shuttles.

// AccidentCollection defines the interface for accident report operations.
type AccidentCollection interface {
	InsertAccident(ctx context.Context, accident models.Accident) (primitive.ObjectID, error)
	FindAccidents(ctx context.Context, filter bson.M) ([]models.Accident, error)
}

// MongoAccidentCollection implements AccidentCollection for MongoDB
type MongoAccidentCollection struct {
	Collection *mongo.Collection
}

// InsertAccident inserts an accident report.
func (c *MongoAccidentCollection) InsertAccident(ctx context.Context, accident models.Accident) (primitive.ObjectID, error) {
	if accident.ID.IsZero() {
		accident.ID = primitive.NewObjectID()
	}
	accident.CreatedAt = time.Now()
	accident.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, accident)
	if err != nil {
		return primitive.NilObjectID, translate(err, "accident report")
	}
	return accident.ID, nil
}

// FindAccidents queries accident reports from the collection.
func (c *MongoAccidentCollection) FindAccidents(ctx context.Context, filter bson.M) ([]models.Accident, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "accident report")
	}
	defer cursor.Close(ctx)

	var accidents []models.Accident
	if err := cursor.All(ctx, &accidents); err != nil {
		return nil, translate(err, "accident report")
	}
	return accidents, nil
}

// CostCollection defines the interface for cost ledger operations.
type CostCollection interface {
	InsertCost(ctx context.Context, cost models.Cost) (primitive.ObjectID, error)
	FindCosts(ctx context.Context, filter bson.M) ([]models.Cost, error)
}

// MongoCostCollection implements CostCollection for MongoDB
type MongoCostCollection struct {
	Collection *mongo.Collection
}

// InsertCost inserts a cost record.
func (c *MongoCostCollection) InsertCost(ctx context.Context, cost models.Cost) (primitive.ObjectID, error) {
	if cost.ID.IsZero() {
		cost.ID = primitive.NewObjectID()
	}
	cost.CreatedAt = time.Now()
	cost.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, cost)
	if err != nil {
		return primitive.NilObjectID, translate(err, "cost record")
	}
	return cost.ID, nil
}

// FindCosts queries cost records from the collection.
func (c *MongoCostCollection) FindCosts(ctx context.Context, filter bson.M) ([]models.Cost, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "cost record")
	}
	defer cursor.Close(ctx)

	var costs []models.Cost
	if err := cursor.All(ctx, &costs); err != nil {
		return nil, translate(err, "cost record")
	}
	return costs, nil
}

// ParkingCollection defines the interface for parking session operations.
type ParkingCollection interface {
	InsertParking(ctx context.Context, parking models.Parking) (primitive.ObjectID, error)
	FindParking(ctx context.Context, filter bson.M) ([]models.Parking, error)
	EndParking(ctx context.Context, id primitive.ObjectID, endTime time.Time) error
}

// MongoParkingCollection implements ParkingCollection for MongoDB
type MongoParkingCollection struct {
	Collection *mongo.Collection
}

// InsertParking inserts a parking session, deriving the duration when the
// end time is already known.
func (c *MongoParkingCollection) InsertParking(ctx context.Context, parking models.Parking) (primitive.ObjectID, error) {
	if parking.ID.IsZero() {
		parking.ID = primitive.NewObjectID()
	}
	if parking.StartTime.IsZero() {
		parking.StartTime = time.Now()
	}
	if parking.CostCurrency == "" {
		parking.CostCurrency = "USD"
	}
	if parking.ParkingType == "" {
		parking.ParkingType = "daily"
	}
	if parking.PaymentStatus == "" {
		parking.PaymentStatus = "unpaid"
	}
	parking.IsActive = parking.EndTime == nil
	parking.ComputeDuration()
	parking.CreatedAt = time.Now()
	parking.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, parking)
	if err != nil {
		return primitive.NilObjectID, translate(err, "parking session")
	}
	return parking.ID, nil
}

// FindParking queries parking sessions from the collection.
func (c *MongoParkingCollection) FindParking(ctx context.Context, filter bson.M) ([]models.Parking, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "parking session")
	}
	defer cursor.Close(ctx)

	var sessions []models.Parking
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, translate(err, "parking session")
	}
	return sessions, nil
}

// EndParking closes a parking session and recomputes its duration.
func (c *MongoParkingCollection) EndParking(ctx context.Context, id primitive.ObjectID, endTime time.Time) error {
	var session models.Parking
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		return translate(err, "parking session")
	}

	session.EndTime = &endTime
	session.ComputeDuration()

	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"end_time":       endTime,
			"duration_hours": session.DurationHours,
			"is_active":      false,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return translate(err, "parking session")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "parking session not found")
	}
	return nil
}

// ShuttleCollection defines the interface for shuttle operations.
type ShuttleCollection interface {
	InsertShuttle(ctx context.Context, shuttle models.Shuttle) (primitive.ObjectID, error)
	FindShuttles(ctx context.Context, filter bson.M) ([]models.Shuttle, error)
	UpdateShuttle(ctx context.Context, id primitive.ObjectID, fields bson.M) error
}

// MongoShuttleCollection implements ShuttleCollection for MongoDB
type MongoShuttleCollection struct {
	Collection *mongo.Collection
}

// InsertShuttle inserts a shuttle; duplicate registrations are rejected by
// the unique index.
func (c *MongoShuttleCollection) InsertShuttle(ctx context.Context, shuttle models.Shuttle) (primitive.ObjectID, error) {
	if shuttle.ID.IsZero() {
		shuttle.ID = primitive.NewObjectID()
	}
	if shuttle.Status == "" {
		shuttle.Status = "active"
	}
	shuttle.CreatedAt = time.Now()
	shuttle.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, shuttle)
	if err != nil {
		return primitive.NilObjectID, translate(err, "shuttle")
	}
	return shuttle.ID, nil
}

// FindShuttles queries shuttles from the collection.
func (c *MongoShuttleCollection) FindShuttles(ctx context.Context, filter bson.M) ([]models.Shuttle, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "shuttle")
	}
	defer cursor.Close(ctx)

	var shuttles []models.Shuttle
	if err := cursor.All(ctx, &shuttles); err != nil {
		return nil, translate(err, "shuttle")
	}
	return shuttles, nil
}

// UpdateShuttle updates shuttle fields.
func (c *MongoShuttleCollection) UpdateShuttle(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(err, "shuttle")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "shuttle not found")
	}
	return nil
}
