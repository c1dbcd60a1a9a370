package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/models"
)

func TestUpdateStatusIf(t *testing.T) {
	vehicles := &MongoVehicleCollection{Collection: testCollection(t, "vehicles")}

	vehicle := models.Vehicle{
		ID:           primitive.NewObjectID(),
		Registration: "ABC123",
		Status:       models.VehicleAvailable,
	}
	require.NoError(t, vehicles.InsertVehicle(context.Background(), vehicle))

	// the first conditional transition wins
	err := vehicles.UpdateStatusIf(context.Background(), vehicle.ID, models.VehicleAvailable, models.VehicleInUse)
	require.NoError(t, err)

	// the second observes the stale precondition and fails
	err = vehicles.UpdateStatusIf(context.Background(), vehicle.ID, models.VehicleAvailable, models.VehicleInUse)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindState))

	current, err := vehicles.FindVehicleByID(context.Background(), vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleInUse, current.Status)
}

func TestUpdateStatusIfUnknownVehicle(t *testing.T) {
	vehicles := &MongoVehicleCollection{Collection: testCollection(t, "vehicles")}

	err := vehicles.UpdateStatusIf(context.Background(), primitive.NewObjectID(), models.VehicleAvailable, models.VehicleInUse)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFindVehicleByRegistration(t *testing.T) {
	vehicles := &MongoVehicleCollection{Collection: testCollection(t, "vehicles")}

	vehicle := models.Vehicle{
		ID:           primitive.NewObjectID(),
		Registration: "XYZ999",
		Status:       models.VehicleAvailable,
	}
	require.NoError(t, vehicles.InsertVehicle(context.Background(), vehicle))

	found, err := vehicles.FindVehicleByRegistration(context.Background(), "XYZ999")
	require.NoError(t, err)
	assert.Equal(t, vehicle.ID, found.ID)

	_, err = vehicles.FindVehicleByRegistration(context.Background(), "NOPE")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
