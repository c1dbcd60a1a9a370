package handlers

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/fleet"
	"github.com/fleetops/fleet-management/internal/middleware"
	"github.com/fleetops/fleet-management/internal/models"
)

// VehicleHandler handles vehicle requests
type VehicleHandler struct {
	vehicles db.VehicleCollection
	manager  *fleet.VehicleManager
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(vehicles db.VehicleCollection, manager *fleet.VehicleManager) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, manager: manager}
}

// CreateVehicle registers a new vehicle. Vehicles always start available;
// any status supplied by the client is ignored.
func (h *VehicleHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	var req struct {
		Registration    string    `json:"registration" validate:"required"`
		Make            string    `json:"make" validate:"required"`
		Model           string    `json:"model" validate:"required"`
		Year            int       `json:"year" validate:"required,gte=1950"`
		Color           string    `json:"color"`
		VehicleType     string    `json:"vehicle_type" validate:"required,oneof=car truck van bus motorcycle"`
		FuelType        string    `json:"fuel_type" validate:"required,oneof=petrol diesel electric hybrid cng"`
		Department      string    `json:"department_id"`
		InsuranceExpiry time.Time `json:"insurance_expiry"`
		Mileage         float64   `json:"mileage" validate:"gte=0"`
		Notes           string    `json:"notes" validate:"max=500"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	department, err := optionalID(req.Department)
	if err != nil {
		writeError(w, err)
		return
	}

	vehicle := models.Vehicle{
		ID:              primitive.NewObjectID(),
		Registration:    req.Registration,
		Make:            req.Make,
		Model:           req.Model,
		Year:            req.Year,
		Color:           req.Color,
		VehicleType:     req.VehicleType,
		FuelType:        req.FuelType,
		Status:          models.VehicleAvailable,
		DepartmentID:    department,
		InsuranceExpiry: req.InsuranceExpiry,
		Mileage:         req.Mileage,
		Notes:           req.Notes,
		CreatedBy:       actor.ID,
	}

	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, vehicle)
}

// ListVehicles returns vehicles, optionally filtered by status, type or
// department.
func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.IsValidVehicleStatus(models.VehicleStatus(status)) {
			writeError(w, apperr.Newf(apperr.KindValidation, "invalid vehicle status %q", status))
			return
		}
		filter["status"] = status
	}
	if vt := r.URL.Query().Get("vehicle_type"); vt != "" {
		filter["vehicle_type"] = vt
	}
	if dept := r.URL.Query().Get("department"); dept != "" {
		id, err := primitive.ObjectIDFromHex(dept)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid department"))
			return
		}
		filter["department_id"] = id
	}

	vehicles, err := h.vehicles.FindVehicles(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, vehicles)
}

// GetVehicle returns one vehicle by id.
func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, vehicle)
}

// GetVehicleByRegistration returns one vehicle by registration number.
func (h *VehicleHandler) GetVehicleByRegistration(w http.ResponseWriter, r *http.Request) {
	registration := r.PathValue("registration")
	if registration == "" {
		writeError(w, apperr.New(apperr.KindValidation, "registration required"))
		return
	}

	vehicle, err := h.vehicles.FindVehicleByRegistration(r.Context(), registration)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, vehicle)
}

// UpdateVehicle updates non-status details of a vehicle. Status is owned by
// the lifecycle manager and cannot be written here.
func (h *VehicleHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Registration    string     `json:"registration"`
		Make            string     `json:"make"`
		Model           string     `json:"model"`
		Year            int        `json:"year" validate:"omitempty,gte=1950"`
		Color           string     `json:"color"`
		VehicleType     string     `json:"vehicle_type" validate:"omitempty,oneof=car truck van bus motorcycle"`
		FuelType        string     `json:"fuel_type" validate:"omitempty,oneof=petrol diesel electric hybrid cng"`
		Department      string     `json:"department_id"`
		LastServiceDate *time.Time `json:"last_service_date"`
		NextServiceDue  *time.Time `json:"next_service_due"`
		InsuranceExpiry *time.Time `json:"insurance_expiry"`
		Mileage         *float64   `json:"mileage" validate:"omitempty,gte=0"`
		Notes           *string    `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	fields := bson.M{}
	if req.Registration != "" {
		fields["registration"] = req.Registration
	}
	if req.Make != "" {
		fields["make"] = req.Make
	}
	if req.Model != "" {
		fields["model"] = req.Model
	}
	if req.Year != 0 {
		fields["year"] = req.Year
	}
	if req.Color != "" {
		fields["color"] = req.Color
	}
	if req.VehicleType != "" {
		fields["vehicle_type"] = req.VehicleType
	}
	if req.FuelType != "" {
		fields["fuel_type"] = req.FuelType
	}
	if req.Department != "" {
		dept, err := optionalID(req.Department)
		if err != nil {
			writeError(w, err)
			return
		}
		fields["department_id"] = dept
	}
	if req.LastServiceDate != nil {
		fields["last_service_date"] = req.LastServiceDate
	}
	if req.NextServiceDue != nil {
		fields["next_service_due"] = req.NextServiceDue
	}
	if req.InsuranceExpiry != nil {
		fields["insurance_expiry"] = req.InsuranceExpiry
	}
	if req.Mileage != nil {
		fields["mileage"] = *req.Mileage
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	if len(fields) == 0 {
		writeError(w, apperr.New(apperr.KindValidation, "no fields to update"))
		return
	}

	if err := h.vehicles.UpdateVehicle(r.Context(), id, fields); err != nil {
		writeError(w, err)
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, vehicle)
}

// AssignVehicle marks a vehicle in-use without a trip record.
func (h *VehicleHandler) AssignVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.manager.Assign(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "vehicle assigned")
}

// UnassignVehicle reverses an admin assignment.
func (h *VehicleHandler) UnassignVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.manager.Unassign(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "vehicle unassigned")
}

// RetireVehicle takes a vehicle out of service from any state.
func (h *VehicleHandler) RetireVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.manager.Retire(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "vehicle retired")
}

// ReactivateVehicle returns an out-of-service vehicle to the fleet.
func (h *VehicleHandler) ReactivateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.manager.Reactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "vehicle reactivated")
}

// DeleteVehicle removes a vehicle record.
func (h *VehicleHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.vehicles.DeleteVehicle(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "vehicle deleted successfully")
}
