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

// DepartmentCollection defines the interface for department operations.
type DepartmentCollection interface {
	InsertDepartment(ctx context.Context, department models.Department) (primitive.ObjectID, error)
	FindDepartmentByID(ctx context.Context, id primitive.ObjectID) (*models.Department, error)
	FindDepartments(ctx context.Context, filter bson.M) ([]models.Department, error)
	UpdateDepartment(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	UpdateBudget(ctx context.Context, id primitive.ObjectID, budget float64) error
	DeductFunds(ctx context.Context, id primitive.ObjectID, amount float64) (*models.Department, error)
}

// MongoDepartmentCollection implements DepartmentCollection for MongoDB
type MongoDepartmentCollection struct {
	Collection *mongo.Collection
}

// InsertDepartment inserts a department and returns its generated id.
func (c *MongoDepartmentCollection) InsertDepartment(ctx context.Context, department models.Department) (primitive.ObjectID, error) {
	if department.ID.IsZero() {
		department.ID = primitive.NewObjectID()
	}
	department.CreatedAt = time.Now()
	department.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, department)
	if err != nil {
		return primitive.NilObjectID, translate(err, "department")
	}
	return department.ID, nil
}

// FindDepartmentByID finds a department by its ID.
func (c *MongoDepartmentCollection) FindDepartmentByID(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	var department models.Department
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&department)
	if err != nil {
		return nil, translate(err, "department")
	}
	return &department, nil
}

// FindDepartments queries departments from the collection.
func (c *MongoDepartmentCollection) FindDepartments(ctx context.Context, filter bson.M) ([]models.Department, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "department")
	}
	defer cursor.Close(ctx)

	var departments []models.Department
	if err := cursor.All(ctx, &departments); err != nil {
		return nil, translate(err, "department")
	}
	return departments, nil
}

// UpdateDepartment updates department fields.
func (c *MongoDepartmentCollection) UpdateDepartment(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(err, "department")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "department not found")
	}
	return nil
}

// UpdateBudget resets the allocated funds; available funds follow the new
// allocation.
func (c *MongoDepartmentCollection) UpdateBudget(ctx context.Context, id primitive.ObjectID, budget float64) error {
	return c.UpdateDepartment(ctx, id, bson.M{
		"allocated_funds": budget,
		"available_funds": budget,
	})
}

// DeductFunds decrements available funds in one conditional update so the
// balance can never go negative, even under concurrent deductions. Returns
// the department after the deduction.
func (c *MongoDepartmentCollection) DeductFunds(ctx context.Context, id primitive.ObjectID, amount float64) (*models.Department, error) {
	if amount <= 0 {
		return nil, apperr.New(apperr.KindValidation, "deduction amount must be positive")
	}

	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "available_funds": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"available_funds": -amount},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return nil, translate(err, "department")
	}
	if result.MatchedCount == 0 {
		count, err := c.Collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return nil, translate(err, "department")
		}
		if count == 0 {
			return nil, apperr.New(apperr.KindNotFound, "department not found")
		}
		return nil, apperr.New(apperr.KindState, "insufficient funds")
	}

	return c.FindDepartmentByID(ctx, id)
}

// SubsidiaryCollection defines the interface for subsidiary operations.
type SubsidiaryCollection interface {
	InsertSubsidiary(ctx context.Context, subsidiary models.Subsidiary) (primitive.ObjectID, error)
	FindSubsidiaries(ctx context.Context, filter bson.M) ([]models.Subsidiary, error)
}

// MongoSubsidiaryCollection implements SubsidiaryCollection for MongoDB
type MongoSubsidiaryCollection struct {
	Collection *mongo.Collection
}

// InsertSubsidiary inserts a subsidiary; duplicate codes are rejected by the
// unique index.
func (c *MongoSubsidiaryCollection) InsertSubsidiary(ctx context.Context, subsidiary models.Subsidiary) (primitive.ObjectID, error) {
	if subsidiary.ID.IsZero() {
		subsidiary.ID = primitive.NewObjectID()
	}
	if subsidiary.Status == "" {
		subsidiary.Status = "active"
	}
	subsidiary.CreatedAt = time.Now()
	subsidiary.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, subsidiary)
	if err != nil {
		return primitive.NilObjectID, translate(err, "subsidiary")
	}
	return subsidiary.ID, nil
}

// FindSubsidiaries queries subsidiaries from the collection.
func (c *MongoSubsidiaryCollection) FindSubsidiaries(ctx context.Context, filter bson.M) ([]models.Subsidiary, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "subsidiary")
	}
	defer cursor.Close(ctx)

	var subsidiaries []models.Subsidiary
	if err := cursor.All(ctx, &subsidiaries); err != nil {
		return nil, translate(err, "subsidiary")
	}
	return subsidiaries, nil
}
