package handlers

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/middleware"
	"github.com/fleetops/fleet-management/internal/models"
)

// FuelHandler handles fuel record requests
type FuelHandler struct {
	fuel db.FuelCollection
}

// NewFuelHandler creates a new fuel handler
func NewFuelHandler(fuel db.FuelCollection) *FuelHandler {
	return &FuelHandler{fuel: fuel}
}

// RecordFuel records a fueling event. The total cost is derived from the
// amount and unit cost server-side; a client-supplied total is ignored.
func (h *FuelHandler) RecordFuel(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	var req struct {
		VehicleID       string    `json:"vehicle_id" validate:"required"`
		DriverID        string    `json:"driver_id"`
		FuelingDate     time.Time `json:"fueling_date"`
		OdometerReading float64   `json:"odometer_reading" validate:"gte=0"`
		FuelAmount      float64   `json:"fuel_amount" validate:"required,gt=0"`
		FuelType        string    `json:"fuel_type" validate:"required,oneof=petrol diesel electric hybrid cng"`
		CostPerUnit     float64   `json:"cost_per_unit" validate:"gte=0"`
		FuelingLocation string    `json:"fueling_location" validate:"required"`
		FuelCardNumber  string    `json:"fuel_card_number"`
		ReceiptNumber   string    `json:"receipt_number"`
		FuelingType     string    `json:"fueling_type" validate:"omitempty,oneof=full partial"`
		Notes           string    `json:"notes" validate:"max=500"`
		Department      string    `json:"department"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	vehicleID, err := primitive.ObjectIDFromHex(req.VehicleID)
	if err != nil {
		writeError(w, apperr.New(apperr.KindValidation, "invalid vehicle_id"))
		return
	}
	driverID, err := optionalID(req.DriverID)
	if err != nil {
		writeError(w, err)
		return
	}
	department, err := optionalID(req.Department)
	if err != nil {
		writeError(w, err)
		return
	}

	record := models.Fuel{
		VehicleID:       vehicleID,
		DriverID:        driverID,
		FuelingDate:     req.FuelingDate,
		OdometerReading: req.OdometerReading,
		FuelAmount:      req.FuelAmount,
		FuelType:        req.FuelType,
		CostPerUnit:     req.CostPerUnit,
		FuelingLocation: req.FuelingLocation,
		FuelCardNumber:  req.FuelCardNumber,
		ReceiptNumber:   req.ReceiptNumber,
		FuelingType:     req.FuelingType,
		Notes:           req.Notes,
		Department:      department,
		RecordedBy:      actor.ID,
	}

	id, err := h.fuel.InsertFuel(r.Context(), record)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.fuel.FindFuelByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// ListFuel returns fuel records, optionally filtered by vehicle, driver or
// verification state.
func (h *FuelHandler) ListFuel(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if vehicle := r.URL.Query().Get("vehicle"); vehicle != "" {
		id, err := primitive.ObjectIDFromHex(vehicle)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid vehicle"))
			return
		}
		filter["vehicle_id"] = id
	}
	if driver := r.URL.Query().Get("driver"); driver != "" {
		id, err := primitive.ObjectIDFromHex(driver)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid driver"))
			return
		}
		filter["driver_id"] = id
	}
	if verified := r.URL.Query().Get("verified"); verified != "" {
		filter["is_verified"] = verified == "true"
	}

	records, err := h.fuel.FindFuel(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, records)
}

// GetFuel returns one fuel record by id.
func (h *FuelHandler) GetFuel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.fuel.FindFuelByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, record)
}

// UpdateFuel edits a fuel record. Verified records are immutable. The derived
// total is recomputed from the updated factors on write.
func (h *FuelHandler) UpdateFuel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := h.fuel.FindFuelByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if existing.IsVerified {
		writeError(w, apperr.New(apperr.KindState, "verified fuel records cannot be edited"))
		return
	}

	var req struct {
		FuelingDate     *time.Time `json:"fueling_date"`
		OdometerReading *float64   `json:"odometer_reading" validate:"omitempty,gte=0"`
		FuelAmount      *float64   `json:"fuel_amount" validate:"omitempty,gt=0"`
		FuelType        string     `json:"fuel_type" validate:"omitempty,oneof=petrol diesel electric hybrid cng"`
		CostPerUnit     *float64   `json:"cost_per_unit" validate:"omitempty,gte=0"`
		FuelingLocation string     `json:"fueling_location"`
		FuelCardNumber  string     `json:"fuel_card_number"`
		ReceiptNumber   string     `json:"receipt_number"`
		FuelingType     string     `json:"fueling_type" validate:"omitempty,oneof=full partial"`
		Notes           *string    `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.FuelingDate != nil {
		existing.FuelingDate = *req.FuelingDate
	}
	if req.OdometerReading != nil {
		existing.OdometerReading = *req.OdometerReading
	}
	if req.FuelAmount != nil {
		existing.FuelAmount = *req.FuelAmount
	}
	if req.FuelType != "" {
		existing.FuelType = req.FuelType
	}
	if req.CostPerUnit != nil {
		existing.CostPerUnit = *req.CostPerUnit
	}
	if req.FuelingLocation != "" {
		existing.FuelingLocation = req.FuelingLocation
	}
	if req.FuelCardNumber != "" {
		existing.FuelCardNumber = req.FuelCardNumber
	}
	if req.ReceiptNumber != "" {
		existing.ReceiptNumber = req.ReceiptNumber
	}
	if req.FuelingType != "" {
		existing.FuelingType = req.FuelingType
	}
	if req.Notes != nil {
		existing.Notes = *req.Notes
	}

	if err := h.fuel.UpdateFuel(r.Context(), id, *existing); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.fuel.FindFuelByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, updated)
}

// VerifyFuel marks a fuel record as verified by the acting user.
func (h *FuelHandler) VerifyFuel(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.fuel.VerifyFuel(r.Context(), id, actor.ID); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "fuel record verified")
}

// DeleteFuel removes a fuel record. Verified records cannot be deleted.
func (h *FuelHandler) DeleteFuel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := h.fuel.FindFuelByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing.IsVerified {
		writeError(w, apperr.New(apperr.KindState, "verified fuel records cannot be deleted"))
		return
	}

	if err := h.fuel.DeleteFuel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "fuel record deleted successfully")
}
