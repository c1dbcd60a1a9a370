package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestComputeTotalCost(t *testing.T) {
	f := Fuel{FuelAmount: 40, CostPerUnit: 1.5}
	f.ComputeTotalCost()
	assert.Equal(t, 60.0, f.TotalCost)

	// changing a factor and recomputing overwrites any stale total
	f.FuelAmount = 10
	f.ComputeTotalCost()
	assert.Equal(t, 15.0, f.TotalCost)
}

func TestTripStatusTerminalAndActive(t *testing.T) {
	assert.True(t, TripCompleted.IsTerminal())
	assert.True(t, TripCancelled.IsTerminal())
	assert.False(t, TripScheduled.IsTerminal())
	assert.False(t, TripInProgress.IsTerminal())
	assert.False(t, TripDelayed.IsTerminal())

	assert.True(t, TripScheduled.IsActive())
	assert.True(t, TripInProgress.IsActive())
	assert.True(t, TripDelayed.IsActive())
	assert.False(t, TripCompleted.IsActive())
	assert.False(t, TripCancelled.IsActive())
}

func TestTakesVehicleOffRoad(t *testing.T) {
	assert.True(t, MaintenanceRepair.TakesVehicleOffRoad())
	assert.True(t, MaintenanceAccidentRepair.TakesVehicleOffRoad())
	assert.False(t, MaintenanceRoutine.TakesVehicleOffRoad())
	assert.False(t, MaintenanceInspection.TakesVehicleOffRoad())
	assert.False(t, MaintenanceOther.TakesVehicleOffRoad())
}

func TestParkingComputeDuration(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	p := Parking{StartTime: start, EndTime: &end}
	p.ComputeDuration()
	assert.InDelta(t, 1.5, p.DurationHours, 1e-9)

	open := Parking{StartTime: start}
	open.ComputeDuration()
	assert.Zero(t, open.DurationHours)
}

func TestCanAccessDepartment(t *testing.T) {
	dept := primitive.NewObjectID()
	other := primitive.NewObjectID()

	unrestricted := User{}
	assert.True(t, unrestricted.CanAccessDepartment(dept))

	scoped := User{DepartmentAccess: []primitive.ObjectID{dept}}
	assert.True(t, scoped.CanAccessDepartment(dept))
	assert.False(t, scoped.CanAccessDepartment(other))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleSuperAdmin))
	assert.True(t, IsValidRole(RoleDriver))
	assert.False(t, IsValidRole(Role("manager")))
	assert.False(t, IsValidRole(Role("")))
}

func TestIsValidVehicleStatus(t *testing.T) {
	assert.True(t, IsValidVehicleStatus(VehicleAvailable))
	assert.True(t, IsValidVehicleStatus(VehicleOutOfService))
	assert.False(t, IsValidVehicleStatus(VehicleStatus("parked")))
}

func TestIsValidTripStatus(t *testing.T) {
	assert.True(t, IsValidTripStatus(TripDelayed))
	assert.False(t, IsValidTripStatus(TripStatus("paused")))
}
