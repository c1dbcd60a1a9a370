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

// MaintenanceCollection defines the interface for maintenance record operations.
type MaintenanceCollection interface {
	InsertMaintenance(ctx context.Context, record models.Maintenance) (primitive.ObjectID, error)
	FindMaintenanceByID(ctx context.Context, id primitive.ObjectID) (*models.Maintenance, error)
	FindMaintenance(ctx context.Context, filter bson.M) ([]models.Maintenance, error)
	UpdateMaintenanceStatus(ctx context.Context, id primitive.ObjectID, status models.MaintenanceStatus, completedDate *time.Time) error
	UpdateMaintenance(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	DeleteMaintenance(ctx context.Context, id primitive.ObjectID) error
}

// MongoMaintenanceCollection implements MaintenanceCollection for MongoDB
type MongoMaintenanceCollection struct {
	Collection *mongo.Collection
}

// InsertMaintenance inserts a maintenance record and returns its generated id.
func (c *MongoMaintenanceCollection) InsertMaintenance(ctx context.Context, record models.Maintenance) (primitive.ObjectID, error) {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, translate(err, "maintenance record")
	}
	return record.ID, nil
}

// FindMaintenanceByID finds a maintenance record by its ID.
func (c *MongoMaintenanceCollection) FindMaintenanceByID(ctx context.Context, id primitive.ObjectID) (*models.Maintenance, error) {
	var record models.Maintenance
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		return nil, translate(err, "maintenance record")
	}
	return &record, nil
}

// FindMaintenance queries maintenance records from the collection.
func (c *MongoMaintenanceCollection) FindMaintenance(ctx context.Context, filter bson.M) ([]models.Maintenance, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "maintenance record")
	}
	defer cursor.Close(ctx)

	var records []models.Maintenance
	if err := cursor.All(ctx, &records); err != nil {
		return nil, translate(err, "maintenance record")
	}
	return records, nil
}

// UpdateMaintenanceStatus sets the record status and, for completions, the
// completion date.
func (c *MongoMaintenanceCollection) UpdateMaintenanceStatus(ctx context.Context, id primitive.ObjectID, status models.MaintenanceStatus, completedDate *time.Time) error {
	set := bson.M{"status": status, "updated_at": time.Now()}
	if completedDate != nil {
		set["completed_date"] = completedDate
	}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return translate(err, "maintenance record")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "maintenance record not found")
	}
	return nil
}

// UpdateMaintenance updates non-status fields of a maintenance record.
func (c *MongoMaintenanceCollection) UpdateMaintenance(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(err, "maintenance record")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "maintenance record not found")
	}
	return nil
}

// DeleteMaintenance deletes a maintenance record by its ID.
func (c *MongoMaintenanceCollection) DeleteMaintenance(ctx context.Context, id primitive.ObjectID) error {
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "maintenance record")
	}
	if result.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, "maintenance record not found")
	}
	return nil
}
