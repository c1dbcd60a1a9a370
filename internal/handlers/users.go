package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/auth"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/middleware"
	"github.com/fleetops/fleet-management/internal/models"
)

// UserHandler handles user management requests
type UserHandler struct {
	authService *auth.Service
	users       db.UserCollection
}

// NewUserHandler creates a new user management handler
func NewUserHandler(authService *auth.Service, users db.UserCollection) *UserHandler {
	return &UserHandler{authService: authService, users: users}
}

// createUserRequest is the payload for administratively created accounts.
type createUserRequest struct {
	EmployeeNumber   string                     `json:"employee_number" validate:"required"`
	Email            string                     `json:"email" validate:"required,email"`
	Password         string                     `json:"password" validate:"required,min=8"`
	FirstName        string                     `json:"first_name" validate:"required"`
	LastName         string                     `json:"last_name" validate:"required"`
	Grade            string                     `json:"grade"`
	PhoneNumber      string                     `json:"phone_number"`
	LicenseNumber    string                     `json:"license_number"`
	Role             models.Role                `json:"role" validate:"required"`
	Permissions      map[models.Capability]bool `json:"permissions"`
	Department       string                     `json:"department"`
	DepartmentAccess []string                   `json:"department_access"`
	IsDriver         bool                       `json:"is_driver"`
}

func (req *createUserRequest) toUser(h *UserHandler) (*models.User, error) {
	if !models.IsValidRole(req.Role) {
		return nil, apperr.Newf(apperr.KindValidation, "invalid role %q", req.Role)
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to hash password", err)
	}

	department, err := optionalID(req.Department)
	if err != nil {
		return nil, err
	}

	var departmentAccess []primitive.ObjectID
	for _, hex := range req.DepartmentAccess {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, apperr.New(apperr.KindValidation, "invalid department id in department_access")
		}
		departmentAccess = append(departmentAccess, id)
	}

	return &models.User{
		ID:                  primitive.NewObjectID(),
		EmployeeNumber:      req.EmployeeNumber,
		Email:               strings.ToLower(req.Email),
		PasswordHash:        passwordHash,
		CredentialChangedAt: time.Now(),
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Grade:               req.Grade,
		PhoneNumber:         req.PhoneNumber,
		LicenseNumber:       req.LicenseNumber,
		Role:                req.Role,
		Permissions:         models.MergePermissions(models.DefaultPermissions(req.Role), req.Permissions),
		Department:          department,
		DepartmentAccess:    departmentAccess,
		IsDriver:            req.IsDriver,
		Status:              models.UserActive,
	}, nil
}

// CreateUser creates an account with an explicit role. Only a super-admin may
// mint another super-admin.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
		writeError(w, apperr.New(apperr.KindForbidden, "only a super-admin may create super-admin accounts"))
		return
	}

	user, err := req.toUser(h)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.InsertUser(r.Context(), *user); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, user)
}

// batchResult reports the outcome of one item in a batch create.
type batchResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// BatchCreateUsers creates several accounts in one call. Each item succeeds
// or fails independently; the response carries a per-item result.
func (h *UserHandler) BatchCreateUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	var req struct {
		Users []createUserRequest `json:"users" validate:"required,min=1,dive"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	results := make([]batchResult, 0, len(req.Users))
	for _, item := range req.Users {
		res := batchResult{Email: item.Email}

		if item.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
			res.Message = "only a super-admin may create super-admin accounts"
			results = append(results, res)
			continue
		}

		user, err := item.toUser(h)
		if err != nil {
			res.Message = apperr.SafeMessage(err)
			results = append(results, res)
			continue
		}

		if err := h.users.InsertUser(r.Context(), *user); err != nil {
			res.Message = apperr.SafeMessage(err)
			results = append(results, res)
			continue
		}

		res.Success = true
		res.ID = user.ID.Hex()
		results = append(results, res)
	}

	writeData(w, http.StatusOK, results)
}

// ListUsers returns users, optionally filtered by role, status or department.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if role := r.URL.Query().Get("role"); role != "" {
		filter["role"] = role
	}
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

	users, err := h.users.FindUsers(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, users)
}

// GetUser returns one user by id.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), id.Hex())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

// GetDrivers returns active drivers, optionally scoped to a department.
func (h *UserHandler) GetDrivers(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{"is_driver": true, "status": models.UserActive}
	if dept := r.URL.Query().Get("department"); dept != "" {
		id, err := primitive.ObjectIDFromHex(dept)
		if err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "invalid department"))
			return
		}
		filter["department"] = id
	}

	drivers, err := h.users.FindUsers(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, drivers)
}

// UpdateRole changes a user's role and recomputes permissions from the new
// role's defaults merged with the supplied overrides.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		Role        models.Role                `json:"role" validate:"required"`
		Permissions map[models.Capability]bool `json:"permissions"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if !models.IsValidRole(req.Role) {
		writeError(w, apperr.Newf(apperr.KindValidation, "invalid role %q", req.Role))
		return
	}

	if req.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
		writeError(w, apperr.New(apperr.KindForbidden, "only a super-admin may grant the super-admin role"))
		return
	}

	merged := models.MergePermissions(models.DefaultPermissions(req.Role), req.Permissions)
	if err := h.users.UpdateRoleAndPermissions(r.Context(), id.Hex(), req.Role, merged); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "role updated successfully")
}

// UpdateUser updates profile fields on a user. Credentials, role and
// permissions are managed through their dedicated endpoints.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	existing, err := h.users.FindUserByID(r.Context(), id.Hex())
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Email            string            `json:"email" validate:"omitempty,email"`
		FirstName        string            `json:"first_name"`
		LastName         string            `json:"last_name"`
		Grade            string            `json:"grade"`
		PhoneNumber      string            `json:"phone_number"`
		LicenseNumber    string            `json:"license_number"`
		Department       string            `json:"department"`
		DepartmentAccess []string          `json:"department_access"`
		IsDriver         *bool             `json:"is_driver"`
		Status           models.UserStatus `json:"status" validate:"omitempty,oneof=Active Inactive Suspended"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.Email != "" {
		existing.Email = strings.ToLower(req.Email)
	}
	if req.FirstName != "" {
		existing.FirstName = req.FirstName
	}
	if req.LastName != "" {
		existing.LastName = req.LastName
	}
	if req.Grade != "" {
		existing.Grade = req.Grade
	}
	if req.PhoneNumber != "" {
		existing.PhoneNumber = req.PhoneNumber
	}
	if req.LicenseNumber != "" {
		existing.LicenseNumber = req.LicenseNumber
	}
	if req.Department != "" {
		dept, err := optionalID(req.Department)
		if err != nil {
			writeError(w, err)
			return
		}
		existing.Department = dept
	}
	if req.DepartmentAccess != nil {
		access := make([]primitive.ObjectID, 0, len(req.DepartmentAccess))
		for _, hex := range req.DepartmentAccess {
			deptID, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				writeError(w, apperr.New(apperr.KindValidation, "invalid department id in department_access"))
				return
			}
			access = append(access, deptID)
		}
		existing.DepartmentAccess = access
	}
	if req.IsDriver != nil {
		existing.IsDriver = *req.IsDriver
	}
	if req.Status != "" {
		existing.Status = req.Status
	}

	if err := h.users.UpdateUser(r.Context(), id.Hex(), *existing); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, existing)
}

// DeleteUser removes an account. A user cannot delete themselves.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
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

	if actor.ID == id {
		writeError(w, apperr.New(apperr.KindValidation, "cannot delete your own account"))
		return
	}

	if err := h.users.DeleteUser(r.Context(), id.Hex()); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "user deleted successfully")
}
