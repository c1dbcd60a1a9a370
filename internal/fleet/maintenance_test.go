package fleet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/models"
)

type maintenanceFixture struct {
	vehicles *fakeVehicles
	records  *fakeMaintenance
	manager  *MaintenanceManager
	vehicle  *models.Vehicle
}

func newMaintenanceFixture() *maintenanceFixture {
	vehicle := availableVehicle()
	vehicles := newFakeVehicles(vehicle)
	records := newFakeMaintenance()
	vm := NewVehicleManager(vehicles, newFakeTrips())

	return &maintenanceFixture{
		vehicles: vehicles,
		records:  records,
		manager:  NewMaintenanceManager(records, vm),
		vehicle:  vehicle,
	}
}

func (f *maintenanceFixture) newRecord(mt models.MaintenanceType) models.Maintenance {
	return models.Maintenance{
		VehicleID:       f.vehicle.ID,
		MaintenanceType: mt,
		Description:     "brake pads",
		ScheduledDate:   time.Now().Add(24 * time.Hour),
		Cost:            250,
	}
}

func TestScheduleRepairTakesVehicleOffRoad(t *testing.T) {
	f := newMaintenanceFixture()

	record, err := f.manager.Schedule(context.Background(), f.newRecord(models.MaintenanceRepair))
	require.NoError(t, err)

	assert.Equal(t, models.MaintenanceScheduled, record.Status)
	assert.Equal(t, models.VehicleMaintenance, f.vehicles.status(f.vehicle.ID))
}

func TestScheduleRoutineLeavesVehicleAvailable(t *testing.T) {
	f := newMaintenanceFixture()

	for _, mt := range []models.MaintenanceType{models.MaintenanceRoutine, models.MaintenanceInspection, models.MaintenanceOther} {
		_, err := f.manager.Schedule(context.Background(), f.newRecord(mt))
		require.NoError(t, err)
		assert.Equal(t, models.VehicleAvailable, f.vehicles.status(f.vehicle.ID))
	}
}

func TestScheduleRepairOnBusyVehicleRejected(t *testing.T) {
	f := newMaintenanceFixture()
	f.vehicles.SetStatus(context.Background(), f.vehicle.ID, models.VehicleInUse)

	_, err := f.manager.Schedule(context.Background(), f.newRecord(models.MaintenanceAccidentRepair))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindState))
	assert.Equal(t, models.VehicleInUse, f.vehicles.status(f.vehicle.ID))
}

func TestScheduleRollsBackClaimOnWriteFailure(t *testing.T) {
	f := newMaintenanceFixture()
	f.records.insertErr = errors.New("write failed")

	_, err := f.manager.Schedule(context.Background(), f.newRecord(models.MaintenanceRepair))
	require.Error(t, err)
	assert.Equal(t, models.VehicleAvailable, f.vehicles.status(f.vehicle.ID))
}

func TestCompleteRepairReleasesVehicle(t *testing.T) {
	f := newMaintenanceFixture()

	record, err := f.manager.Schedule(context.Background(), f.newRecord(models.MaintenanceRepair))
	require.NoError(t, err)

	_, err = f.manager.UpdateStatus(context.Background(), record.ID, models.MaintenanceInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleMaintenance, f.vehicles.status(f.vehicle.ID))

	completed, err := f.manager.Complete(context.Background(), record.ID)
	require.NoError(t, err)

	assert.Equal(t, models.MaintenanceCompleted, completed.Status)
	require.NotNil(t, completed.CompletedDate)
	assert.Equal(t, models.VehicleAvailable, f.vehicles.status(f.vehicle.ID))
}

func TestCancelRepairReleasesVehicle(t *testing.T) {
	f := newMaintenanceFixture()

	record, err := f.manager.Schedule(context.Background(), f.newRecord(models.MaintenanceRepair))
	require.NoError(t, err)

	cancelled, err := f.manager.Cancel(context.Background(), record.ID)
	require.NoError(t, err)

	assert.Equal(t, models.MaintenanceCancelled, cancelled.Status)
	assert.Nil(t, cancelled.CompletedDate)
	assert.Equal(t, models.VehicleAvailable, f.vehicles.status(f.vehicle.ID))
}

func TestCompleteRoutineLeavesVehicleAlone(t *testing.T) {
	f := newMaintenanceFixture()
	f.vehicles.SetStatus(context.Background(), f.vehicle.ID, models.VehicleInUse)

	record, err := f.manager.Schedule(context.Background(), f.newRecord(models.MaintenanceRoutine))
	require.NoError(t, err)

	_, err = f.manager.Complete(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleInUse, f.vehicles.status(f.vehicle.ID))
}

func TestMaintenanceIllegalTransitions(t *testing.T) {
	f := newMaintenanceFixture()

	record, err := f.manager.Schedule(context.Background(), f.newRecord(models.MaintenanceRoutine))
	require.NoError(t, err)

	_, err = f.manager.Complete(context.Background(), record.ID)
	require.NoError(t, err)

	// completed records cannot move again
	_, err = f.manager.UpdateStatus(context.Background(), record.ID, models.MaintenanceInProgress)
	assert.True(t, apperr.Is(err, apperr.KindState))
	_, err = f.manager.Cancel(context.Background(), record.ID)
	assert.True(t, apperr.Is(err, apperr.KindState))
}
