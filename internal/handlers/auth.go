package handlers

import (
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/auth"
	"github.com/fleetops/fleet-management/internal/db"
	"github.com/fleetops/fleet-management/internal/middleware"
	"github.com/fleetops/fleet-management/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *auth.Service
	users       db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, users db.UserCollection) *AuthHandler {
	return &AuthHandler{authService: authService, users: users}
}

// Login authenticates by email and password and issues a session token.
// Inactive and suspended accounts are rejected regardless of the password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			writeError(w, apperr.New(apperr.KindAuth, "invalid email or password"))
			return
		}
		writeError(w, err)
		return
	}

	if user.Status != models.UserActive {
		writeError(w, apperr.New(apperr.KindAuth, "account is not active"))
		return
	}

	if !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, apperr.New(apperr.KindAuth, "invalid email or password"))
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindTransient, "failed to generate token", err))
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).Warn("failed to update last login")
	}

	writeData(w, http.StatusOK, models.LoginResponse{Token: token, User: *user})
}

// Register creates a self-registered account. Self-registration always
// yields role "user" with that role's default permissions; elevated roles
// are granted only through the user management endpoints.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.ValidatePassword(req.Password); err != nil {
		writeError(w, apperr.New(apperr.KindValidation, err.Error()))
		return
	}

	if _, err := h.users.FindUserByEmailOrEmployeeNumber(r.Context(), req.Email, req.EmployeeNumber); err == nil {
		writeError(w, apperr.New(apperr.KindConflict, "user already exists with this email or employee number"))
		return
	} else if !apperr.Is(err, apperr.KindNotFound) {
		writeError(w, err)
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindTransient, "failed to hash password", err))
		return
	}

	department, err := optionalID(req.Department)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now()
	user := models.User{
		ID:                  primitive.NewObjectID(),
		EmployeeNumber:      req.EmployeeNumber,
		Email:               strings.ToLower(req.Email),
		PasswordHash:        passwordHash,
		CredentialChangedAt: now,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		PhoneNumber:         req.PhoneNumber,
		Department:          department,
		Role:                models.RoleUser,
		Permissions:         models.DefaultPermissions(models.RoleUser),
		Status:              models.UserActive,
	}

	if err := h.users.InsertUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.authService.GenerateToken(&user)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindTransient, "failed to generate token", err))
		return
	}

	writeData(w, http.StatusCreated, models.LoginResponse{Token: token, User: user})
}

// Profile returns the authenticated principal.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}
	writeData(w, http.StatusOK, user)
}

// ChangePassword verifies the current password and stores a new hash,
// stamping the credential epoch so every previously issued token goes stale.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.KindAuth, "authentication required"))
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if !h.authService.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		writeError(w, apperr.New(apperr.KindAuth, "current password is incorrect"))
		return
	}

	newHash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindTransient, "failed to hash password", err))
		return
	}

	if err := h.users.SetCredential(r.Context(), user.ID.Hex(), newHash, time.Now()); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "password changed successfully")
}
