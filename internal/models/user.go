package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleSuperAdmin   Role = "super-admin"
	RoleAdmin        Role = "admin"
	RoleFleetManager Role = "fleet-manager"
	RoleDispatcher   Role = "dispatcher"
	RoleDriver       Role = "driver"
	RoleViewer       Role = "viewer"
	RoleUser         Role = "user"
)

// UserStatus represents the account status of a user
type UserStatus string

const (
	UserActive    UserStatus = "Active"
	UserInactive  UserStatus = "Inactive"
	UserSuspended UserStatus = "Suspended"
)

// User represents a principal in the system. Permissions are seeded from the
// role defaults and may carry per-user overrides. An empty DepartmentAccess
// set means the user is not scoped to any particular department.
type User struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	EmployeeNumber      string               `bson:"employee_number" json:"employee_number"`
	Email               string               `bson:"email" json:"email"`
	PasswordHash        string               `bson:"password_hash" json:"-"`
	CredentialChangedAt time.Time            `bson:"credential_changed_at" json:"-"`
	FirstName           string               `bson:"first_name" json:"first_name"`
	LastName            string               `bson:"last_name" json:"last_name"`
	Grade               string               `bson:"grade,omitempty" json:"grade,omitempty"`
	PhoneNumber         string               `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	LicenseNumber       string               `bson:"license_number,omitempty" json:"license_number,omitempty"`
	Role                Role                 `bson:"role" json:"role"`
	Permissions         map[Capability]bool  `bson:"permissions" json:"permissions"`
	DepartmentAccess    []primitive.ObjectID `bson:"department_access,omitempty" json:"department_access,omitempty"`
	SubsidiaryAccess    []primitive.ObjectID `bson:"subsidiary_access,omitempty" json:"subsidiary_access,omitempty"`
	Department          primitive.ObjectID   `bson:"department,omitempty" json:"department,omitempty"`
	IsDriver            bool                 `bson:"is_driver" json:"is_driver"`
	Status              UserStatus           `bson:"status" json:"status"`
	LastLogin           *time.Time           `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt           time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time            `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a self-registration request. Self-registered
// accounts always end up with role "user" and the default permission set.
type RegisterRequest struct {
	EmployeeNumber string `json:"employee_number" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	PhoneNumber    string `json:"phone_number"`
	Department     string `json:"department"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Claims represents the verified contents of a session token.
type Claims struct {
	UserID   string `json:"user_id"`
	IssuedAt int64  `json:"iat"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleFleetManager, RoleDispatcher, RoleDriver, RoleViewer, RoleUser:
		return true
	default:
		return false
	}
}

// CanAccessDepartment reports whether the user may act on the given
// department. An empty access list means unrestricted.
func (u *User) CanAccessDepartment(departmentID primitive.ObjectID) bool {
	if len(u.DepartmentAccess) == 0 {
		return true
	}
	for _, id := range u.DepartmentAccess {
		if id == departmentID {
			return true
		}
	}
	return false
}
