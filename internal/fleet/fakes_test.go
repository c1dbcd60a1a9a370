package fleet

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/models"
)

// In-memory stores mirroring the conditional-update semantics of the real
// collections, so the lifecycle invariants can be exercised without a
// database, including under concurrency.

type fakeVehicles struct {
	mu       sync.Mutex
	vehicles map[primitive.ObjectID]*models.Vehicle
}

func newFakeVehicles(vehicles ...*models.Vehicle) *fakeVehicles {
	f := &fakeVehicles{vehicles: make(map[primitive.ObjectID]*models.Vehicle)}
	for _, v := range vehicles {
		f.vehicles[v.ID] = v
	}
	return f
}

func (f *fakeVehicles) InsertVehicle(_ context.Context, vehicle models.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vehicles[vehicle.ID] = &vehicle
	return nil
}

func (f *fakeVehicles) FindVehicleByID(_ context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "vehicle not found")
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVehicles) FindVehicleByRegistration(_ context.Context, registration string) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.vehicles {
		if v.Registration == registration {
			copied := *v
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "vehicle not found")
}

func (f *fakeVehicles) FindVehicles(_ context.Context, _ bson.M) ([]models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Vehicle, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeVehicles) UpdateVehicle(_ context.Context, id primitive.ObjectID, _ bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[id]; !ok {
		return apperr.New(apperr.KindNotFound, "vehicle not found")
	}
	return nil
}

// UpdateStatusIf matches the store's compare-and-swap: the transition only
// applies when the current status equals the expected pre-state.
func (f *fakeVehicles) UpdateStatusIf(_ context.Context, id primitive.ObjectID, from, to models.VehicleStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "vehicle not found")
	}
	if v.Status != from {
		return apperr.Newf(apperr.KindState, "vehicle is not %s", from)
	}
	v.Status = to
	return nil
}

func (f *fakeVehicles) SetStatus(_ context.Context, id primitive.ObjectID, status models.VehicleStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "vehicle not found")
	}
	v.Status = status
	return nil
}

func (f *fakeVehicles) UpdateLocation(_ context.Context, registration string, location models.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.vehicles {
		if v.Registration == registration {
			v.CurrentLocation = &location
			return nil
		}
	}
	return apperr.New(apperr.KindNotFound, "vehicle not found")
}

func (f *fakeVehicles) DeleteVehicle(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[id]; !ok {
		return apperr.New(apperr.KindNotFound, "vehicle not found")
	}
	delete(f.vehicles, id)
	return nil
}

func (f *fakeVehicles) status(id primitive.ObjectID) models.VehicleStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vehicles[id].Status
}

type fakeTrips struct {
	mu        sync.Mutex
	trips     map[primitive.ObjectID]*models.Trip
	insertErr error
	updateErr error
}

func newFakeTrips() *fakeTrips {
	return &fakeTrips{trips: make(map[primitive.ObjectID]*models.Trip)}
}

func (f *fakeTrips) InsertTrip(_ context.Context, trip models.Trip) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return primitive.NilObjectID, f.insertErr
	}
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	trip.CreatedAt = time.Now()
	f.trips[trip.ID] = &trip
	return trip.ID, nil
}

func (f *fakeTrips) FindTripByID(_ context.Context, id primitive.ObjectID) (*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "trip not found")
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTrips) FindTrips(_ context.Context, _ bson.M) ([]models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Trip, 0, len(f.trips))
	for _, t := range f.trips {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTrips) UpdateTripStatus(_ context.Context, id primitive.ObjectID, status models.TripStatus, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "trip not found")
	}
	t.Status = status
	if note != "" {
		t.Notes = note
	}
	return nil
}

func (f *fakeTrips) UpdateTrip(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	t, ok := f.trips[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "trip not found")
	}
	if d, ok := fields["driver_id"].(primitive.ObjectID); ok {
		t.DriverID = d
	}
	if v, ok := fields["vehicle_id"].(primitive.ObjectID); ok {
		t.VehicleID = v
	}
	return nil
}

func (f *fakeTrips) DeleteTrip(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.trips, id)
	return nil
}

func (f *fakeTrips) CountActiveTripsForVehicle(_ context.Context, vehicleID, excludeTrip primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, t := range f.trips {
		if t.VehicleID == vehicleID && t.Status.IsActive() && t.ID != excludeTrip {
			count++
		}
	}
	return count, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUsers) InsertUser(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID.Hex()] = &user
	return nil
}

func (f *fakeUsers) FindUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "user not found")
}

func (f *fakeUsers) FindUserByEmailOrEmployeeNumber(ctx context.Context, email, _ string) (*models.User, error) {
	return f.FindUserByEmail(ctx, email)
}

func (f *fakeUsers) FindUsers(_ context.Context, _ bson.M) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, _ string, _ models.User) error { return nil }

func (f *fakeUsers) UpdateRoleAndPermissions(_ context.Context, _ string, _ models.Role, _ map[models.Capability]bool) error {
	return nil
}

func (f *fakeUsers) SetCredential(_ context.Context, _ string, _ string, _ time.Time) error {
	return nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, _ string) error { return nil }

func (f *fakeUsers) UpdateLastLogin(_ context.Context, _ string) error { return nil }

type fakeMaintenance struct {
	mu        sync.Mutex
	records   map[primitive.ObjectID]*models.Maintenance
	insertErr error
}

func newFakeMaintenance() *fakeMaintenance {
	return &fakeMaintenance{records: make(map[primitive.ObjectID]*models.Maintenance)}
}

func (f *fakeMaintenance) InsertMaintenance(_ context.Context, record models.Maintenance) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return primitive.NilObjectID, f.insertErr
	}
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	f.records[record.ID] = &record
	return record.ID, nil
}

func (f *fakeMaintenance) FindMaintenanceByID(_ context.Context, id primitive.ObjectID) (*models.Maintenance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "maintenance record not found")
	}
	copied := *r
	return &copied, nil
}

func (f *fakeMaintenance) FindMaintenance(_ context.Context, _ bson.M) ([]models.Maintenance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Maintenance, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeMaintenance) UpdateMaintenanceStatus(_ context.Context, id primitive.ObjectID, status models.MaintenanceStatus, completedDate *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "maintenance record not found")
	}
	r.Status = status
	if completedDate != nil {
		r.CompletedDate = completedDate
	}
	return nil
}

func (f *fakeMaintenance) UpdateMaintenance(_ context.Context, _ primitive.ObjectID, _ bson.M) error {
	return nil
}

func (f *fakeMaintenance) DeleteMaintenance(_ context.Context, _ primitive.ObjectID) error {
	return nil
}
