package db

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/models"
)

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByEmailOrEmployeeNumber(ctx context.Context, email, employeeNumber string) (*models.User, error)
	FindUsers(ctx context.Context, filter bson.M) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	UpdateRoleAndPermissions(ctx context.Context, id string, role models.Role, permissions map[models.Capability]bool) error
	SetCredential(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	DeleteUser(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// InsertUser inserts a new user. Emails are stored lowercased so the unique
// index makes the uniqueness check case-insensitive.
func (c *MongoUserCollection) InsertUser(ctx context.Context, user models.User) error {
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := c.Collection.InsertOne(ctx, user)
	return translate(err, "user")
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid user id")
	}

	var user models.User
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		return nil, translate(err, "user")
	}

	return &user, nil
}

// FindUserByEmail finds a user by their email, case-insensitively.
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := c.Collection.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&user)
	if err != nil {
		return nil, translate(err, "user")
	}

	return &user, nil
}

// FindUserByEmailOrEmployeeNumber finds a user matching either identifier.
func (c *MongoUserCollection) FindUserByEmailOrEmployeeNumber(ctx context.Context, email, employeeNumber string) (*models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": strings.ToLower(email)},
		bson.M{"employee_number": employeeNumber},
	}}

	var user models.User
	err := c.Collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, translate(err, "user")
	}

	return &user, nil
}

// FindUsers finds users with optional filtering
func (c *MongoUserCollection) FindUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, translate(err, "user")
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, translate(err, "user")
	}
	return users, nil
}

// UpdateUser replaces a user document.
func (c *MongoUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid user id")
	}

	user.ID = objectID
	user.Email = strings.ToLower(user.Email)
	user.UpdatedAt = time.Now()

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, user)
	if err != nil {
		return translate(err, "user")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	return nil
}

// UpdateRoleAndPermissions sets a user's role together with the merged
// permission map in one write.
func (c *MongoUserCollection) UpdateRoleAndPermissions(ctx context.Context, id string, role models.Role, permissions map[models.Capability]bool) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid user id")
	}

	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"role":        role,
			"permissions": permissions,
			"updated_at":  time.Now(),
		}},
	)
	if err != nil {
		return translate(err, "user")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	return nil
}

// SetCredential stores a new password hash and stamps the credential epoch,
// invalidating every token issued before changedAt.
func (c *MongoUserCollection) SetCredential(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid user id")
	}

	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"password_hash":         passwordHash,
			"credential_changed_at": changedAt,
			"updated_at":            time.Now(),
		}},
	)
	if err != nil {
		return translate(err, "user")
	}
	if result.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	return nil
}

// DeleteUser deletes a user from the database. Historical trips keep their
// driver references as denormalized snapshots.
func (c *MongoUserCollection) DeleteUser(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid user id")
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return translate(err, "user")
	}
	if result.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	return nil
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid user id")
	}

	now := time.Now()
	_, err = c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}},
	)
	return translate(err, "user")
}
