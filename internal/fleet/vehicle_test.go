package fleet

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/models"
)

func availableVehicle() *models.Vehicle {
	return &models.Vehicle{
		ID:           primitive.NewObjectID(),
		Registration: "ABC123",
		Status:       models.VehicleAvailable,
	}
}

func TestClaimAvailableVehicle(t *testing.T) {
	vehicle := availableVehicle()
	vehicles := newFakeVehicles(vehicle)
	m := NewVehicleManager(vehicles, newFakeTrips())

	require.NoError(t, m.Claim(context.Background(), vehicle.ID, models.VehicleInUse))
	assert.Equal(t, models.VehicleInUse, vehicles.status(vehicle.ID))
}

func TestClaimBusyVehicleRejected(t *testing.T) {
	for _, busy := range []models.VehicleStatus{models.VehicleInUse, models.VehicleMaintenance, models.VehicleOutOfService} {
		t.Run(string(busy), func(t *testing.T) {
			vehicle := availableVehicle()
			vehicle.Status = busy
			vehicles := newFakeVehicles(vehicle)
			m := NewVehicleManager(vehicles, newFakeTrips())

			err := m.Claim(context.Background(), vehicle.ID, models.VehicleInUse)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindState))
			assert.Equal(t, "vehicle unavailable", apperr.SafeMessage(err))
			// no mutation on a rejected claim
			assert.Equal(t, busy, vehicles.status(vehicle.ID))
		})
	}
}

func TestClaimMissingVehicle(t *testing.T) {
	m := NewVehicleManager(newFakeVehicles(), newFakeTrips())

	err := m.Claim(context.Background(), primitive.NewObjectID(), models.VehicleInUse)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// Two concurrent claims on the same available vehicle: exactly one wins.
func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	for i := 0; i < 50; i++ {
		vehicle := availableVehicle()
		vehicles := newFakeVehicles(vehicle)
		m := NewVehicleManager(vehicles, newFakeTrips())

		var wins int32
		var wg sync.WaitGroup
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := m.Claim(context.Background(), vehicle.ID, models.VehicleInUse); err == nil {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins)
		assert.Equal(t, models.VehicleInUse, vehicles.status(vehicle.ID))
	}
}

func TestReleaseAfterTripFreesVehicleWhenNoOtherActive(t *testing.T) {
	vehicle := availableVehicle()
	vehicle.Status = models.VehicleInUse
	vehicles := newFakeVehicles(vehicle)
	trips := newFakeTrips()
	m := NewVehicleManager(vehicles, trips)

	closing := primitive.NewObjectID()
	require.NoError(t, m.ReleaseAfterTrip(context.Background(), vehicle.ID, closing))
	assert.Equal(t, models.VehicleAvailable, vehicles.status(vehicle.ID))
}

func TestReleaseAfterTripKeepsVehicleWhenOtherTripActive(t *testing.T) {
	vehicle := availableVehicle()
	vehicle.Status = models.VehicleInUse
	vehicles := newFakeVehicles(vehicle)
	trips := newFakeTrips()
	m := NewVehicleManager(vehicles, trips)

	closingID, err := trips.InsertTrip(context.Background(), models.Trip{
		VehicleID: vehicle.ID,
		Status:    models.TripInProgress,
	})
	require.NoError(t, err)
	_, err = trips.InsertTrip(context.Background(), models.Trip{
		VehicleID: vehicle.ID,
		Status:    models.TripScheduled,
	})
	require.NoError(t, err)

	require.NoError(t, m.ReleaseAfterTrip(context.Background(), vehicle.ID, closingID))
	assert.Equal(t, models.VehicleInUse, vehicles.status(vehicle.ID))
}

func TestUnassignRequiresInUse(t *testing.T) {
	vehicle := availableVehicle()
	vehicles := newFakeVehicles(vehicle)
	m := NewVehicleManager(vehicles, newFakeTrips())

	err := m.Unassign(context.Background(), vehicle.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindState))
}

func TestRetireFromAnyState(t *testing.T) {
	for _, from := range []models.VehicleStatus{models.VehicleAvailable, models.VehicleInUse, models.VehicleMaintenance} {
		vehicle := availableVehicle()
		vehicle.Status = from
		vehicles := newFakeVehicles(vehicle)
		m := NewVehicleManager(vehicles, newFakeTrips())

		require.NoError(t, m.Retire(context.Background(), vehicle.ID))
		assert.Equal(t, models.VehicleOutOfService, vehicles.status(vehicle.ID))
	}
}

func TestReactivateOnlyFromOutOfService(t *testing.T) {
	vehicle := availableVehicle()
	vehicle.Status = models.VehicleOutOfService
	vehicles := newFakeVehicles(vehicle)
	m := NewVehicleManager(vehicles, newFakeTrips())

	require.NoError(t, m.Reactivate(context.Background(), vehicle.ID))
	assert.Equal(t, models.VehicleAvailable, vehicles.status(vehicle.ID))

	// already available: reactivation is a state error
	err := m.Reactivate(context.Background(), vehicle.ID)
	assert.True(t, apperr.Is(err, apperr.KindState))
}
