package fleet

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/models"
)

// MaintenanceManager enforces maintenance status transitions and the
// invariant that a vehicle under open repair work sits in the maintenance
// status.
type MaintenanceManager struct {
	records  db.MaintenanceCollection
	vehicles *VehicleManager
	now      func() time.Time
}

// NewMaintenanceManager creates a maintenance lifecycle manager.
func NewMaintenanceManager(records db.MaintenanceCollection, vehicles *VehicleManager) *MaintenanceManager {
	return &MaintenanceManager{records: records, vehicles: vehicles, now: time.Now}
}

var maintenanceTransitions = map[models.MaintenanceStatus][]models.MaintenanceStatus{
	models.MaintenanceScheduled:  {models.MaintenanceInProgress, models.MaintenanceCompleted, models.MaintenanceCancelled},
	models.MaintenanceInProgress: {models.MaintenanceCompleted, models.MaintenanceCancelled},
}

func canTransitionMaintenance(from, to models.MaintenanceStatus) bool {
	for _, next := range maintenanceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Schedule records new maintenance work. Repair and accident-repair work
// takes the vehicle off the road: the vehicle is claimed into maintenance
// atomically with the record's creation, and the claim is rolled back if the
// record cannot be written.
func (m *MaintenanceManager) Schedule(ctx context.Context, record models.Maintenance) (*models.Maintenance, error) {
	offRoad := record.MaintenanceType.TakesVehicleOffRoad()
	if offRoad {
		if err := m.vehicles.Claim(ctx, record.VehicleID, models.VehicleMaintenance); err != nil {
			return nil, err
		}
	}

	record.Status = models.MaintenanceScheduled
	id, err := m.records.InsertMaintenance(ctx, record)
	if err != nil {
		if offRoad {
			m.vehicles.Release(ctx, record.VehicleID, models.VehicleMaintenance)
		}
		return nil, err
	}
	record.ID = id

	return &record, nil
}

// UpdateStatus moves a maintenance record to a new status and returns the
// vehicle to service when off-road work closes.
func (m *MaintenanceManager) UpdateStatus(ctx context.Context, recordID primitive.ObjectID, newStatus models.MaintenanceStatus) (*models.Maintenance, error) {
	record, err := m.records.FindMaintenanceByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if !canTransitionMaintenance(record.Status, newStatus) {
		return nil, apperr.Newf(apperr.KindState, "cannot move maintenance from %s to %s", record.Status, newStatus)
	}

	var completedDate *time.Time
	if newStatus == models.MaintenanceCompleted {
		now := m.now()
		completedDate = &now
	}

	if err := m.records.UpdateMaintenanceStatus(ctx, recordID, newStatus, completedDate); err != nil {
		return nil, err
	}
	record.Status = newStatus
	record.CompletedDate = completedDate

	closed := newStatus == models.MaintenanceCompleted || newStatus == models.MaintenanceCancelled
	if closed && record.MaintenanceType.TakesVehicleOffRoad() {
		m.vehicles.Release(ctx, record.VehicleID, models.VehicleMaintenance)
	}

	return record, nil
}

// Complete closes a maintenance record as done.
func (m *MaintenanceManager) Complete(ctx context.Context, recordID primitive.ObjectID) (*models.Maintenance, error) {
	return m.UpdateStatus(ctx, recordID, models.MaintenanceCompleted)
}

// Cancel closes a maintenance record without doing the work.
func (m *MaintenanceManager) Cancel(ctx context.Context, recordID primitive.ObjectID) (*models.Maintenance, error) {
	return m.UpdateStatus(ctx, recordID, models.MaintenanceCancelled)
}
