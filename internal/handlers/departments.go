package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/auth"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/middleware"
	"github.com/fleetops/fleet-management/internal/models"
)

// DepartmentHandler handles department and subsidiary requests
type DepartmentHandler struct {
	departments  db.DepartmentCollection
	subsidiaries db.SubsidiaryCollection
}

// NewDepartmentHandler creates a new department handler
func NewDepartmentHandler(departments db.DepartmentCollection, subsidiaries db.SubsidiaryCollection) *DepartmentHandler {
	return &DepartmentHandler{departments: departments, subsidiaries: subsidiaries}
}

// CreateDepartment creates a department. Available funds start at the
// allocated budget.
func (h *DepartmentHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string  `json:"name" validate:"required"`
		Description    string  `json:"description"`
		Head           string  `json:"head"`
		AllocatedFunds float64 `json:"allocated_funds" validate:"gte=0"`
		Subsidiary     string  `json:"subsidiary"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	head, err := optionalID(req.Head)
	if err != nil {
		writeError(w, err)
		return
	}
	subsidiary, err := optionalID(req.Subsidiary)
	if err != nil {
		writeError(w, err)
		return
	}

	department := models.Department{
		Name:           req.Name,
		Description:    req.Description,
		Head:           head,
		AllocatedFunds: req.AllocatedFunds,
		AvailableFunds: req.AllocatedFunds,
		Subsidiary:     subsidiary,
	}

	id, err := h.departments.InsertDepartment(r.Context(), department)
	if err != nil {
		writeError(w, err)
		return
	}
	department.ID = id

	writeData(w, http.StatusCreated, department)
}

// ListDepartments returns all departments.
func (h *DepartmentHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.departments.FindDepartments(r.Context(), bson.M{})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, departments)
}

// GetDepartment returns one department by id.
func (h *DepartmentHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	department, err := h.departments.FindDepartmentByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, department)
}

// UpdateDepartment edits department fields other than the budget.
func (h *DepartmentHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Head        string `json:"head"`
		Subsidiary  string `json:"subsidiary"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	fields := bson.M{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.Head != "" {
		head, err := optionalID(req.Head)
		if err != nil {
			writeError(w, err)
			return
		}
		fields["head"] = head
	}
	if req.Subsidiary != "" {
		subsidiary, err := optionalID(req.Subsidiary)
		if err != nil {
			writeError(w, err)
			return
		}
		fields["subsidiary"] = subsidiary
	}

	if len(fields) == 0 {
		writeError(w, apperr.New(apperr.KindValidation, "no fields to update"))
		return
	}

	if err := h.departments.UpdateDepartment(r.Context(), id, fields); err != nil {
		writeError(w, err)
		return
	}

	department, err := h.departments.FindDepartmentByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, department)
}

// UpdateBudget resets a department's budget. Available funds follow the new
// allocation.
func (h *DepartmentHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Budget float64 `json:"budget" validate:"gte=0"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.departments.UpdateBudget(r.Context(), id, req.Budget); err != nil {
		writeError(w, err)
		return
	}

	department, err := h.departments.FindDepartmentByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, department)
}

// DeductFunds spends from a department's available funds. The balance can
// never go negative; insufficient funds reject the deduction. Department-
// scoped users may only spend from departments in their access list.
func (h *DepartmentHandler) DeductFunds(w http.ResponseWriter, r *http.Request) {
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

	if decision := auth.Authorize(actor, models.CapFuelManagement, id); !decision.Allowed {
		writeError(w, decision.Err())
		return
	}

	var req struct {
		Amount float64 `json:"amount" validate:"required,gt=0"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	department, err := h.departments.DeductFunds(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, department)
}

// CreateSubsidiary registers a subsidiary. Codes are unique.
func (h *DepartmentHandler) CreateSubsidiary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name" validate:"required"`
		Code         string `json:"code" validate:"required"`
		Address      string `json:"address"`
		ContactEmail string `json:"contact_email" validate:"omitempty,email"`
		ContactPhone string `json:"contact_phone"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	subsidiary := models.Subsidiary{
		Name:         req.Name,
		Code:         req.Code,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}

	id, err := h.subsidiaries.InsertSubsidiary(r.Context(), subsidiary)
	if err != nil {
		writeError(w, err)
		return
	}
	subsidiary.ID = id
	subsidiary.Status = "active"

	writeData(w, http.StatusCreated, subsidiary)
}

// ListSubsidiaries returns all subsidiaries.
func (h *DepartmentHandler) ListSubsidiaries(w http.ResponseWriter, r *http.Request) {
	subsidiaries, err := h.subsidiaries.FindSubsidiaries(r.Context(), bson.M{})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, subsidiaries)
}
