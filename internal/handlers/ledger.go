package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/middleware"
	"github.com/fleetops/fleet-management/internal/models"
)

// LedgerHandler handles the append-mostly ledger entities: costs, accident
// reports, parking sessions and shuttles.
type LedgerHandler struct {
	costs     db.CostCollection
	accidents db.AccidentCollection
	parking   db.ParkingCollection
	shuttles  db.ShuttleCollection
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(costs db.CostCollection, accidents db.AccidentCollection, parking db.ParkingCollection, shuttles db.ShuttleCollection) *LedgerHandler {
	return &LedgerHandler{costs: costs, accidents: accidents, parking: parking, shuttles: shuttles}
}

// RecordCost records a cost ledger entry with a generated external id.
func (h *LedgerHandler) RecordCost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount         float64   `json:"amount" validate:"required,gt=0"`
		Category       string    `json:"category" validate:"required,oneof=fuel maintenance insurance registration tolls parking other"`
		Description    string    `json:"description"`
		IncurredDate   time.Time `json:"incurred_date"`
		Department     string    `json:"department"`
		RelatedVehicle string    `json:"related_vehicle"`
		RelatedDriver  string    `json:"related_driver"`
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
	vehicle, err := optionalID(req.RelatedVehicle)
	if err != nil {
		writeError(w, err)
		return
	}
	driver, err := optionalID(req.RelatedDriver)
	if err != nil {
		writeError(w, err)
		return
	}

	incurred := req.IncurredDate
	if incurred.IsZero() {
		incurred = time.Now()
	}

	cost := models.Cost{
		CostID:         uuid.NewString(),
		Amount:         req.Amount,
		Category:       req.Category,
		Description:    req.Description,
		IncurredDate:   incurred,
		Department:     department,
		RelatedVehicle: vehicle,
		RelatedDriver:  driver,
	}

	id, err := h.costs.InsertCost(r.Context(), cost)
	if err != nil {
		writeError(w, err)
		return
	}
	cost.ID = id

	writeData(w, http.StatusCreated, cost)
}

// ListCosts returns cost records, optionally filtered by category, department
// or vehicle.
func (h *LedgerHandler) ListCosts(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["category"] = category
	}
	if dept := r.URL.Query().Get("department"); dept != "" {
		id, err := primitive.ObjectIDFromHex(dept)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid department"))
			return
		}
		filter["department"] = id
	}
	if vehicle := r.URL.Query().Get("vehicle"); vehicle != "" {
		id, err := primitive.ObjectIDFromHex(vehicle)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid vehicle"))
			return
		}
		filter["related_vehicle"] = id
	}

	costs, err := h.costs.FindCosts(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, costs)
}

// ReportAccident files an accident report.
func (h *LedgerHandler) ReportAccident(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TripID      string    `json:"trip_id"`
		Driver      string    `json:"driver"`
		Date        time.Time `json:"date"`
		Location    string    `json:"location" validate:"required"`
		Description string    `json:"description"`
		Damage      string    `json:"damage"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	tripID, err := optionalID(req.TripID)
	if err != nil {
		writeError(w, err)
		return
	}
	driver, err := optionalID(req.Driver)
	if err != nil {
		writeError(w, err)
		return
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	accident := models.Accident{
		TripID:      tripID,
		Driver:      driver,
		Date:        date,
		Location:    req.Location,
		Description: req.Description,
		Damage:      req.Damage,
		Status:      "reported",
	}

	id, err := h.accidents.InsertAccident(r.Context(), accident)
	if err != nil {
		writeError(w, err)
		return
	}
	accident.ID = id

	writeData(w, http.StatusCreated, accident)
}

// ListAccidents returns accident reports, optionally filtered by driver or trip.
func (h *LedgerHandler) ListAccidents(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if driver := r.URL.Query().Get("driver"); driver != "" {
		id, err := primitive.ObjectIDFromHex(driver)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid driver"))
			return
		}
		filter["driver"] = id
	}
	if trip := r.URL.Query().Get("trip"); trip != "" {
		id, err := primitive.ObjectIDFromHex(trip)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid trip"))
			return
		}
		filter["trip_id"] = id
	}

	accidents, err := h.accidents.FindAccidents(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, accidents)
}

// StartParking opens a parking session. Sessions without an end time stay
// active until ended.
func (h *LedgerHandler) StartParking(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	var req struct {
		VehicleID     string     `json:"vehicle_id"`
		ShuttleID     string     `json:"shuttle_id"`
		Location      string     `json:"location" validate:"required"`
		ParkingType   string     `json:"parking_type" validate:"omitempty,oneof=daily monthly event reserved temporary"`
		StartTime     time.Time  `json:"start_time"`
		EndTime       *time.Time `json:"end_time"`
		CostAmount    float64    `json:"cost_amount" validate:"gte=0"`
		CostCurrency  string     `json:"cost_currency"`
		PaymentStatus string     `json:"payment_status" validate:"omitempty,oneof=paid unpaid pending waived"`
		Department    string     `json:"department"`
		Notes         string     `json:"notes" validate:"max=500"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.VehicleID == "" && req.ShuttleID == "" {
		writeError(w, apperr.New(apperr.KindValidation, "vehicle_id or shuttle_id required"))
		return
	}

	vehicleID, err := optionalID(req.VehicleID)
	if err != nil {
		writeError(w, err)
		return
	}
	shuttleID, err := optionalID(req.ShuttleID)
	if err != nil {
		writeError(w, err)
		return
	}
	department, err := optionalID(req.Department)
	if err != nil {
		writeError(w, err)
		return
	}

	session := models.Parking{
		VehicleID:     vehicleID,
		ShuttleID:     shuttleID,
		Location:      req.Location,
		ParkingType:   req.ParkingType,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		CostAmount:    req.CostAmount,
		CostCurrency:  req.CostCurrency,
		PaymentStatus: req.PaymentStatus,
		Department:    department,
		Notes:         req.Notes,
		RecordedBy:    actor.ID,
	}

	id, err := h.parking.InsertParking(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}
	session.ID = id

	writeData(w, http.StatusCreated, session)
}

// ListParking returns parking sessions, optionally filtered by vehicle or
// active state.
func (h *LedgerHandler) ListParking(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if vehicle := r.URL.Query().Get("vehicle"); vehicle != "" {
		id, err := primitive.ObjectIDFromHex(vehicle)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid vehicle"))
			return
		}
		filter["vehicle_id"] = id
	}
	if active := r.URL.Query().Get("active"); active != "" {
		filter["is_active"] = active == "true"
	}

	sessions, err := h.parking.FindParking(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, sessions)
}

// EndParking closes an active parking session and derives its duration.
func (h *LedgerHandler) EndParking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		EndTime *time.Time `json:"end_time"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	endTime := time.Now()
	if req.EndTime != nil {
		endTime = *req.EndTime
	}

	if err := h.parking.EndParking(r.Context(), id, endTime); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "parking session ended")
}

// CreateShuttle registers a staff shuttle. Registrations are unique.
func (h *LedgerHandler) CreateShuttle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	var req struct {
		Name            string    `json:"name" validate:"required"`
		Registration    string    `json:"registration" validate:"required"`
		Make            string    `json:"make" validate:"required"`
		Model           string    `json:"model" validate:"required"`
		Year            int       `json:"year" validate:"required,gte=1950"`
		Capacity        int       `json:"capacity" validate:"required,min=1"`
		Department      string    `json:"department"`
		FuelType        string    `json:"fuel_type" validate:"required,oneof=petrol diesel electric hybrid"`
		InsuranceExpiry time.Time `json:"insurance_expiry"`
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

	shuttle := models.Shuttle{
		Name:            req.Name,
		Registration:    req.Registration,
		Make:            req.Make,
		Model:           req.Model,
		Year:            req.Year,
		Capacity:        req.Capacity,
		Department:      department,
		FuelType:        req.FuelType,
		InsuranceExpiry: req.InsuranceExpiry,
		CreatedBy:       actor.ID,
	}

	id, err := h.shuttles.InsertShuttle(r.Context(), shuttle)
	if err != nil {
		writeError(w, err)
		return
	}
	shuttle.ID = id
	shuttle.Status = "active"

	writeData(w, http.StatusCreated, shuttle)
}

// ListShuttles returns shuttles, optionally filtered by status or department.
func (h *LedgerHandler) ListShuttles(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if dept := r.URL.Query().Get("department"); dept != "" {
		id, err := primitive.ObjectIDFromHex(dept)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid department"))
			return
		}
		filter["department"] = id
	}

	shuttles, err := h.shuttles.FindShuttles(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, shuttles)
}

// UpdateShuttle edits shuttle fields.
func (h *LedgerHandler) UpdateShuttle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Name            string     `json:"name"`
		Capacity        *int       `json:"capacity" validate:"omitempty,min=1"`
		Status          string     `json:"status" validate:"omitempty,oneof=active maintenance inactive"`
		InsuranceExpiry *time.Time `json:"insurance_expiry"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	fields := bson.M{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Capacity != nil {
		fields["capacity"] = *req.Capacity
	}
	if req.Status != "" {
		fields["status"] = req.Status
	}
	if req.InsuranceExpiry != nil {
		fields["insurance_expiry"] = req.InsuranceExpiry
	}

	if len(fields) == 0 {
		writeError(w, apperr.New(apperr.KindValidation, "no fields to update"))
		return
	}

	if err := h.shuttles.UpdateShuttle(r.Context(), id, fields); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "shuttle updated successfully")
}
