package handlers

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/auth"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/fleet"
	"github.com/fleetops/fleet-management/internal/middleware"
	"github.com/fleetops/fleet-management/internal/models"
)

// TripHandler handles trip (driver booking) requests
type TripHandler struct {
	trips    db.TripCollection
	vehicles db.VehicleCollection
	manager  *fleet.TripManager
}

// NewTripHandler creates a new trip handler
func NewTripHandler(trips db.TripCollection, vehicles db.VehicleCollection, manager *fleet.TripManager) *TripHandler {
	return &TripHandler{trips: trips, vehicles: vehicles, manager: manager}
}

// CreateTrip books a driver and a vehicle. Department-scoped users may only
// book against departments in their access list.
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	var req struct {
		DriverID            string     `json:"driver_id" validate:"required"`
		VehicleID           string     `json:"vehicle_id" validate:"required"`
		PassengerName       string     `json:"passenger_name" validate:"required"`
		PassengerContact    string     `json:"passenger_contact" validate:"required"`
		PickupLocation      string     `json:"pickup_location" validate:"required"`
		Destination         string     `json:"destination" validate:"required"`
		ScheduledPickupTime time.Time  `json:"scheduled_pickup_time" validate:"required"`
		ScheduledReturnTime *time.Time `json:"scheduled_return_time"`
		Purpose             string     `json:"purpose"`
		EstimatedCost       float64    `json:"estimated_cost" validate:"gte=0"`
		Department          string     `json:"department"`
		Notes               string     `json:"notes" validate:"max=500"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	driverID, err := primitive.ObjectIDFromHex(req.DriverID)
	if err != nil {
		writeError(w, apperr.New(apperr.KindValidation, "invalid driver_id"))
		return
	}
	vehicleID, err := primitive.ObjectIDFromHex(req.VehicleID)
	if err != nil {
		writeError(w, apperr.New(apperr.KindValidation, "invalid vehicle_id"))
		return
	}
	department, err := optionalID(req.Department)
	if err != nil {
		writeError(w, err)
		return
	}

	if decision := auth.Authorize(actor, models.CapTripManagement, department); !decision.Allowed {
		writeError(w, decision.Err())
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), vehicleID)
	if err != nil {
		writeError(w, err)
		return
	}

	trip := models.Trip{
		DriverID:            driverID,
		VehicleID:           vehicleID,
		PassengerName:       req.PassengerName,
		PassengerContact:    req.PassengerContact,
		PickupLocation:      req.PickupLocation,
		Destination:         req.Destination,
		ScheduledPickupTime: req.ScheduledPickupTime,
		ScheduledReturnTime: req.ScheduledReturnTime,
		Purpose:             req.Purpose,
		EstimatedCost:       req.EstimatedCost,
		Department:          department,
		Notes:               req.Notes,
		CreatedBy:           actor.ID,
	}

	created, err := h.manager.Create(r.Context(), trip, vehicle)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// ListTrips returns trips, optionally filtered by status, driver, vehicle or
// department.
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.IsValidTripStatus(models.TripStatus(status)) {
			writeError(w, apperr.Newf(apperr.KindValidation, "invalid trip status %q", status))
			return
		}
		filter["status"] = status
	}
	if driver := r.URL.Query().Get("driver"); driver != "" {
		id, err := primitive.ObjectIDFromHex(driver)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid driver"))
			return
		}
		filter["driver_id"] = id
	}
	if vehicle := r.URL.Query().Get("vehicle"); vehicle != "" {
		id, err := primitive.ObjectIDFromHex(vehicle)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid vehicle"))
			return
		}
		filter["vehicle_id"] = id
	}
	if dept := r.URL.Query().Get("department"); dept != "" {
		id, err := primitive.ObjectIDFromHex(dept)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid department"))
			return
		}
		filter["department"] = id
	}

	trips, err := h.trips.FindTrips(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, trips)
}

// GetTrip returns one trip by id.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	trip, err := h.trips.FindTripByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, trip)
}

// UpdateTripStatus moves a trip through its lifecycle. Completing or
// cancelling a trip frees its vehicle unless another active trip holds it.
func (h *TripHandler) UpdateTripStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Status models.TripStatus `json:"status" validate:"required"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	trip, err := h.manager.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, trip)
}

// CancelTrip cancels a trip with an audit note carrying the reason.
func (h *TripHandler) CancelTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	trip, err := h.manager.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, trip)
}

// ReassignTrip changes the driver and/or vehicle of an active trip.
func (h *TripHandler) ReassignTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		DriverID  string `json:"driver_id"`
		VehicleID string `json:"vehicle_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.DriverID == "" && req.VehicleID == "" {
		writeError(w, apperr.New(apperr.KindValidation, "driver_id or vehicle_id required"))
		return
	}

	var driverID, vehicleID *primitive.ObjectID
	if req.DriverID != "" {
		parsed, err := primitive.ObjectIDFromHex(req.DriverID)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid driver_id"))
			return
		}
		driverID = &parsed
	}
	if req.VehicleID != "" {
		parsed, err := primitive.ObjectIDFromHex(req.VehicleID)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid vehicle_id"))
			return
		}
		vehicleID = &parsed
	}

	trip, err := h.manager.Reassign(r.Context(), id, driverID, vehicleID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, trip)
}

// UpdateTrip edits non-lifecycle trip fields (times, costs, notes).
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		PassengerName       string     `json:"passenger_name"`
		PassengerContact    string     `json:"passenger_contact"`
		PickupLocation      string     `json:"pickup_location"`
		Destination         string     `json:"destination"`
		ScheduledPickupTime *time.Time `json:"scheduled_pickup_time"`
		ScheduledReturnTime *time.Time `json:"scheduled_return_time"`
		ActualPickupTime    *time.Time `json:"actual_pickup_time"`
		ActualReturnTime    *time.Time `json:"actual_return_time"`
		Purpose             string     `json:"purpose"`
		EstimatedCost       *float64   `json:"estimated_cost" validate:"omitempty,gte=0"`
		ActualCost          *float64   `json:"actual_cost" validate:"omitempty,gte=0"`
		Notes               *string    `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	fields := bson.M{}
	if req.PassengerName != "" {
		fields["passenger_name"] = req.PassengerName
	}
	if req.PassengerContact != "" {
		fields["passenger_contact"] = req.PassengerContact
	}
	if req.PickupLocation != "" {
		fields["pickup_location"] = req.PickupLocation
	}
	if req.Destination != "" {
		fields["destination"] = req.Destination
	}
	if req.ScheduledPickupTime != nil {
		fields["scheduled_pickup_time"] = req.ScheduledPickupTime
	}
	if req.ScheduledReturnTime != nil {
		fields["scheduled_return_time"] = req.ScheduledReturnTime
	}
	if req.ActualPickupTime != nil {
		fields["actual_pickup_time"] = req.ActualPickupTime
	}
	if req.ActualReturnTime != nil {
		fields["actual_return_time"] = req.ActualReturnTime
	}
	if req.Purpose != "" {
		fields["purpose"] = req.Purpose
	}
	if req.EstimatedCost != nil {
		fields["estimated_cost"] = *req.EstimatedCost
	}
	if req.ActualCost != nil {
		fields["actual_cost"] = *req.ActualCost
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	if len(fields) == 0 {
		writeError(w, apperr.New(apperr.KindValidation, "no fields to update"))
		return
	}

	if err := h.trips.UpdateTrip(r.Context(), id, fields); err != nil {
		writeError(w, err)
		return
	}

	trip, err := h.trips.FindTripByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, trip)
}
