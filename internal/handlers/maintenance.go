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

// MaintenanceHandler handles maintenance record requests
type MaintenanceHandler struct {
	records db.MaintenanceCollection
	manager *fleet.MaintenanceManager
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(records db.MaintenanceCollection, manager *fleet.MaintenanceManager) *MaintenanceHandler {
	return &MaintenanceHandler{records: records, manager: manager}
}

// ScheduleMaintenance records new maintenance work. Repair and accident-repair
// work moves the vehicle into the maintenance status; a vehicle that is not
// available rejects the booking.
func (h *MaintenanceHandler) ScheduleMaintenance(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	var req struct {
		VehicleID       string                 `json:"vehicle_id" validate:"required"`
		MaintenanceType models.MaintenanceType `json:"maintenance_type" validate:"required,oneof=routine repair inspection accident-repair other"`
		Description     string                 `json:"description" validate:"required,max=500"`
		ScheduledDate   time.Time              `json:"scheduled_date" validate:"required"`
		Cost            float64                `json:"cost" validate:"gte=0"`
		ServiceProvider string                 `json:"service_provider"`
		Mileage         float64                `json:"mileage" validate:"gte=0"`
		PartsReplaced   []models.PartReplaced  `json:"parts_replaced"`
		NextServiceDue  *time.Time             `json:"next_service_due"`
		Department      string                 `json:"department"`
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
	department, err := optionalID(req.Department)
	if err != nil {
		writeError(w, err)
		return
	}

	record := models.Maintenance{
		VehicleID:       vehicleID,
		MaintenanceType: req.MaintenanceType,
		Description:     req.Description,
		ScheduledDate:   req.ScheduledDate,
		Cost:            req.Cost,
		ServiceProvider: req.ServiceProvider,
		Mileage:         req.Mileage,
		PartsReplaced:   req.PartsReplaced,
		NextServiceDue:  req.NextServiceDue,
		Department:      department,
		CreatedBy:       actor.ID,
	}

	created, err := h.manager.Schedule(r.Context(), record)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// ListMaintenance returns maintenance records, optionally filtered by vehicle,
// status or type.
func (h *MaintenanceHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if vehicle := r.URL.Query().Get("vehicle"); vehicle != "" {
		id, err := primitive.ObjectIDFromHex(vehicle)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid vehicle"))
			return
		}
		filter["vehicle_id"] = id
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if mt := r.URL.Query().Get("type"); mt != "" {
		filter["maintenance_type"] = mt
	}

	records, err := h.records.FindMaintenance(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, records)
}

// GetMaintenance returns one maintenance record by id.
func (h *MaintenanceHandler) GetMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.records.FindMaintenanceByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, record)
}

// GetVehicleMaintenance returns the maintenance history for a vehicle.
func (h *MaintenanceHandler) GetVehicleMaintenance(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := pathID(r, "vehicleId")
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.records.FindMaintenance(r.Context(), bson.M{"vehicle_id": vehicleID})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, records)
}

// UpdateMaintenanceStatus moves a record through its lifecycle. Completing or
// cancelling off-road work returns the vehicle to service.
func (h *MaintenanceHandler) UpdateMaintenanceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Status models.MaintenanceStatus `json:"status" validate:"required,oneof=scheduled in-progress completed cancelled"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.manager.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, record)
}

// CompleteMaintenance closes a record as done.
func (h *MaintenanceHandler) CompleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.manager.Complete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, record)
}

// CancelMaintenance closes a record without doing the work.
func (h *MaintenanceHandler) CancelMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.manager.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, record)
}

// UpdateMaintenance edits non-status fields of a maintenance record.
func (h *MaintenanceHandler) UpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Description     string                `json:"description" validate:"omitempty,max=500"`
		ScheduledDate   *time.Time            `json:"scheduled_date"`
		Cost            *float64              `json:"cost" validate:"omitempty,gte=0"`
		ServiceProvider string                `json:"service_provider"`
		Mileage         *float64              `json:"mileage" validate:"omitempty,gte=0"`
		PartsReplaced   []models.PartReplaced `json:"parts_replaced"`
		NextServiceDue  *time.Time            `json:"next_service_due"`
		PerformedBy     string                `json:"performed_by"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	fields := bson.M{}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.ScheduledDate != nil {
		fields["scheduled_date"] = req.ScheduledDate
	}
	if req.Cost != nil {
		fields["cost"] = *req.Cost
	}
	if req.ServiceProvider != "" {
		fields["service_provider"] = req.ServiceProvider
	}
	if req.Mileage != nil {
		fields["mileage"] = *req.Mileage
	}
	if req.PartsReplaced != nil {
		fields["parts_replaced"] = req.PartsReplaced
	}
	if req.NextServiceDue != nil {
		fields["next_service_due"] = req.NextServiceDue
	}
	if req.PerformedBy != "" {
		performedBy, err := optionalID(req.PerformedBy)
		if err != nil {
			writeError(w, err)
			return
		}
		fields["performed_by"] = performedBy
	}

	if len(fields) == 0 {
		writeError(w, apperr.New(apperr.KindValidation, "no fields to update"))
		return
	}

	if err := h.records.UpdateMaintenance(r.Context(), id, fields); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.records.FindMaintenanceByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, record)
}
