package auth

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetops/fleet-management/internal/apperr"
	"github.com/fleetops/fleet-management/internal/models"
)

// DenyReason explains why an authorization request was rejected.
type DenyReason string

const (
	DenyInactiveAccount   DenyReason = "InactiveAccount"
	DenyMissingCapability DenyReason = "MissingCapability"
	DenyDepartmentScope   DenyReason = "DepartmentScope"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

var allow = Decision{Allowed: true}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Err converts a deny decision into its apperr kind: inactive accounts are
// an authentication failure, the rest are authorization failures.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case DenyInactiveAccount:
		return apperr.New(apperr.KindAuth, "account is not active")
	case DenyDepartmentScope:
		return apperr.New(apperr.KindForbidden, "access denied for this department")
	default:
		return apperr.New(apperr.KindForbidden, "insufficient permissions")
	}
}

// Authorize decides whether a principal may exercise a capability against a
// target department. It is a pure function over the principal snapshot:
//
//  1. a non-active account is always denied, super-admin included;
//  2. super-admin is otherwise always allowed;
//  3. the capability, when given, must be true in the permission map;
//  4. the department, when given, must fall inside the principal's
//     department scope (an empty scope is unrestricted).
//
// Pass an empty capability or a zero department id to skip those checks.
func Authorize(user *models.User, capability models.Capability, departmentID primitive.ObjectID) Decision {
	if user.Status != models.UserActive {
		return deny(DenyInactiveAccount)
	}

	if user.Role == models.RoleSuperAdmin {
		return allow
	}

	if capability != "" && !user.Permissions[capability] {
		return deny(DenyMissingCapability)
	}

	if !departmentID.IsZero() && !user.CanAccessDepartment(departmentID) {
		return deny(DenyDepartmentScope)
	}

	return allow
}
