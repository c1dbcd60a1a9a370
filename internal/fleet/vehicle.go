// Package fleet holds the lifecycle managers: the components that own every
// vehicle, trip and maintenance status transition and the invariants linking
// them. Handlers call into this package after authorization; nothing else
// writes lifecycle state.
package fleet

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/models"
)

// VehicleManager enforces the vehicle status state machine:
//
//	available -> in-use -> available
//	available -> maintenance -> available
//	any       -> out-of-service (explicit retire only)
//
// Transitions ride on the store's conditional update, which serializes
// racing writers per vehicle.
type VehicleManager struct {
	vehicles db.VehicleCollection
	trips    db.TripCollection
}

// NewVehicleManager creates a vehicle lifecycle manager.
func NewVehicleManager(vehicles db.VehicleCollection, trips db.TripCollection) *VehicleManager {
	return &VehicleManager{vehicles: vehicles, trips: trips}
}

// Claim moves an available vehicle into the given busy state. A vehicle in
// any other state yields a state error and no mutation.
func (m *VehicleManager) Claim(ctx context.Context, vehicleID primitive.ObjectID, to models.VehicleStatus) error {
	err := m.vehicles.UpdateStatusIf(ctx, vehicleID, models.VehicleAvailable, to)
	if apperr.Is(err, apperr.KindState) {
		return apperr.New(apperr.KindState, "vehicle unavailable")
	}
	return err
}

// Release returns a vehicle from a busy state to available. A lost release
// race (the vehicle was retired or re-claimed meanwhile) is logged, not
// propagated: the triggering record's own transition already succeeded.
func (m *VehicleManager) Release(ctx context.Context, vehicleID primitive.ObjectID, from models.VehicleStatus) {
	if err := m.vehicles.UpdateStatusIf(ctx, vehicleID, from, models.VehicleAvailable); err != nil {
		log.WithError(err).WithField("vehicle_id", vehicleID.Hex()).Warn("vehicle release skipped")
	}
}

// ReleaseAfterTrip frees the vehicle when a trip reaches a terminal state,
// but only if no other trip still holds it.
func (m *VehicleManager) ReleaseAfterTrip(ctx context.Context, vehicleID, closingTrip primitive.ObjectID) error {
	active, err := m.trips.CountActiveTripsForVehicle(ctx, vehicleID, closingTrip)
	if err != nil {
		return err
	}
	if active > 0 {
		log.WithFields(log.Fields{
			"vehicle_id":   vehicleID.Hex(),
			"active_trips": active,
		}).Info("vehicle kept in-use, other trips still active")
		return nil
	}
	m.Release(ctx, vehicleID, models.VehicleInUse)
	return nil
}

// Assign marks a vehicle in-use without a trip record (admin override).
func (m *VehicleManager) Assign(ctx context.Context, vehicleID primitive.ObjectID) error {
	return m.Claim(ctx, vehicleID, models.VehicleInUse)
}

// Unassign reverses an admin assignment.
func (m *VehicleManager) Unassign(ctx context.Context, vehicleID primitive.ObjectID) error {
	err := m.vehicles.UpdateStatusIf(ctx, vehicleID, models.VehicleInUse, models.VehicleAvailable)
	if apperr.Is(err, apperr.KindState) {
		return apperr.New(apperr.KindState, "vehicle is not in use")
	}
	return err
}

// Retire forces a vehicle out of service from any state. Terminal except
// for explicit reactivation.
func (m *VehicleManager) Retire(ctx context.Context, vehicleID primitive.ObjectID) error {
	return m.vehicles.SetStatus(ctx, vehicleID, models.VehicleOutOfService)
}

// Reactivate returns a retired vehicle to service.
func (m *VehicleManager) Reactivate(ctx context.Context, vehicleID primitive.ObjectID) error {
	err := m.vehicles.UpdateStatusIf(ctx, vehicleID, models.VehicleOutOfService, models.VehicleAvailable)
	if apperr.Is(err, apperr.KindState) {
		return apperr.New(apperr.KindState, "vehicle is not out of service")
	}
	return err
}
