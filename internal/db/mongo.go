package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fleetops/fleet-management/internal/apperr"
)

// Connect connects to MongoDB and verifies the connection with a ping.
func Connect(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique indexes the domain relies on: duplicate
// emails, employee numbers, registrations and subsidiary codes must be
// rejected by the store, not filtered by application code.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "employee_number", Value: 1}}, Options: unique},
		},
		"vehicles": {
			{Keys: bson.D{{Key: "registration", Value: 1}}, Options: unique},
		},
		"shuttles": {
			{Keys: bson.D{{Key: "registration", Value: 1}}, Options: unique},
		},
		"subsidiaries": {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
		},
		"trips": {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "status", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := database.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes for %s: %w", collection, err)
		}
	}
	return nil
}

// translate maps driver errors into the shared taxonomy so callers above
// the store never see raw persistence errors.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Newf(apperr.KindNotFound, "%s not found", entity)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Wrap(apperr.KindConflict, entity+" already exists", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindTransient, "persistence timeout", err)
	default:
		return apperr.Wrap(apperr.KindTransient, "persistence unavailable", err)
	}
}
