package fleet

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/models"
)

// Notifier sends a trip assignment message to a driver. Implementations are
// fire-and-forget collaborators; a send failure never fails the trip.
type Notifier interface {
	SendTripAssignment(ctx context.Context, driverEmail string, trip *models.Trip, vehicle *models.Vehicle) error
}

// TripManager enforces trip status transitions and their side effects on the
// vehicle state machine.
type TripManager struct {
	trips    db.TripCollection
	users    db.UserCollection
	vehicles *VehicleManager
	notifier Notifier
	now      func() time.Time
}

// NewTripManager creates a trip lifecycle manager. notifier may be nil when
// notifications are not configured.
func NewTripManager(trips db.TripCollection, users db.UserCollection, vehicles *VehicleManager, notifier Notifier) *TripManager {
	return &TripManager{
		trips:    trips,
		users:    users,
		vehicles: vehicles,
		notifier: notifier,
		now:      time.Now,
	}
}

// legal trip transitions; terminal states have no successors.
var tripTransitions = map[models.TripStatus][]models.TripStatus{
	models.TripScheduled:  {models.TripInProgress, models.TripCancelled, models.TripDelayed},
	models.TripDelayed:    {models.TripInProgress, models.TripCancelled},
	models.TripInProgress: {models.TripCompleted, models.TripCancelled},
}

func canTransition(from, to models.TripStatus) bool {
	for _, next := range tripTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Create books a driver and a vehicle. The vehicle is claimed atomically
// before the trip is written; a non-available vehicle rejects the booking
// with no mutation, and a failed trip write rolls the claim back. The driver
// is notified asynchronously after the booking commits.
func (m *TripManager) Create(ctx context.Context, trip models.Trip, vehicle *models.Vehicle) (*models.Trip, error) {
	driver, err := m.users.FindUserByID(ctx, trip.DriverID.Hex())
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "driver not found")
		}
		return nil, err
	}

	if err := m.vehicles.Claim(ctx, trip.VehicleID, models.VehicleInUse); err != nil {
		return nil, err
	}

	trip.Status = models.TripScheduled
	tripID, err := m.trips.InsertTrip(ctx, trip)
	if err != nil {
		m.vehicles.Release(ctx, trip.VehicleID, models.VehicleInUse)
		return nil, err
	}
	trip.ID = tripID

	if m.notifier != nil && driver.Email != "" {
		go func(t models.Trip, v models.Vehicle, email string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := m.notifier.SendTripAssignment(ctx, email, &t, &v); err != nil {
				log.WithError(err).WithField("trip_id", t.ID.Hex()).Warn("trip assignment notification failed")
			}
		}(trip, *vehicle, driver.Email)
	}

	return &trip, nil
}

// UpdateStatus moves a trip to a new status, validating both the value and
// the transition, and frees the vehicle when the trip ends.
func (m *TripManager) UpdateStatus(ctx context.Context, tripID primitive.ObjectID, newStatus models.TripStatus) (*models.Trip, error) {
	if !models.IsValidTripStatus(newStatus) {
		return nil, apperr.Newf(apperr.KindValidation, "invalid status %q", newStatus)
	}

	trip, err := m.trips.FindTripByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if !canTransition(trip.Status, newStatus) {
		return nil, apperr.Newf(apperr.KindState, "cannot move trip from %s to %s", trip.Status, newStatus)
	}

	if err := m.trips.UpdateTripStatus(ctx, tripID, newStatus, ""); err != nil {
		return nil, err
	}
	trip.Status = newStatus

	if newStatus.IsTerminal() {
		if err := m.vehicles.ReleaseAfterTrip(ctx, trip.VehicleID, tripID); err != nil {
			return nil, err
		}
	}

	return trip, nil
}

// Cancel is UpdateStatus(cancelled) with an audit note on the trip.
func (m *TripManager) Cancel(ctx context.Context, tripID primitive.ObjectID, reason string) (*models.Trip, error) {
	trip, err := m.trips.FindTripByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if !canTransition(trip.Status, models.TripCancelled) {
		return nil, apperr.Newf(apperr.KindState, "cannot cancel a %s trip", trip.Status)
	}

	note := trip.Notes
	if reason != "" {
		if note != "" {
			note += "; "
		}
		note += fmt.Sprintf("cancelled at %s: %s", m.now().Format(time.RFC3339), reason)
	}

	if err := m.trips.UpdateTripStatus(ctx, tripID, models.TripCancelled, note); err != nil {
		return nil, err
	}
	trip.Status = models.TripCancelled
	trip.Notes = note

	if err := m.vehicles.ReleaseAfterTrip(ctx, trip.VehicleID, tripID); err != nil {
		return nil, err
	}

	return trip, nil
}

// Reassign changes the trip's driver and/or vehicle. A new vehicle is
// claimed before the trip is rewritten, so reassignment onto a busy vehicle
// fails up front; the old vehicle is then released unless another trip still
// holds it.
func (m *TripManager) Reassign(ctx context.Context, tripID primitive.ObjectID, newDriver, newVehicle *primitive.ObjectID) (*models.Trip, error) {
	trip, err := m.trips.FindTripByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if !trip.Status.IsActive() {
		return nil, apperr.Newf(apperr.KindState, "cannot reassign a %s trip", trip.Status)
	}

	fields := bson.M{}

	if newDriver != nil && *newDriver != trip.DriverID {
		if _, err := m.users.FindUserByID(ctx, newDriver.Hex()); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.New(apperr.KindNotFound, "driver not found")
			}
			return nil, err
		}
		fields["driver_id"] = *newDriver
	}

	swapVehicle := newVehicle != nil && *newVehicle != trip.VehicleID
	if swapVehicle {
		if err := m.vehicles.Claim(ctx, *newVehicle, models.VehicleInUse); err != nil {
			return nil, err
		}
		fields["vehicle_id"] = *newVehicle
	}

	if len(fields) == 0 {
		return trip, nil
	}

	if err := m.trips.UpdateTrip(ctx, tripID, fields); err != nil {
		if swapVehicle {
			m.vehicles.Release(ctx, *newVehicle, models.VehicleInUse)
		}
		return nil, err
	}

	if swapVehicle {
		if err := m.vehicles.ReleaseAfterTrip(ctx, trip.VehicleID, tripID); err != nil {
			return nil, err
		}
		trip.VehicleID = *newVehicle
	}
	if d, ok := fields["driver_id"]; ok {
		trip.DriverID = d.(primitive.ObjectID)
	}

	return trip, nil
}
