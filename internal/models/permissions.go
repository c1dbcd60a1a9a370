package models

// Capability is a named permission flag gating a class of operations.
type Capability string

const (
	CapDashboard             Capability = "dashboard"
	CapUserManagement        Capability = "userManagement"
	CapVehicleManagement     Capability = "vehicleManagement"
	CapTripManagement        Capability = "tripManagement"
	CapMaintenanceManagement Capability = "maintenanceManagement"
	CapFuelManagement        Capability = "fuelManagement"
	CapAnalytics             Capability = "analytics"
	CapCompliance            Capability = "compliance"
	CapSystemSettings        Capability = "systemSettings"
	CapCommunication         Capability = "communication"
)

// AllCapabilities lists every capability known to the system.
var AllCapabilities = []Capability{
	CapDashboard,
	CapUserManagement,
	CapVehicleManagement,
	CapTripManagement,
	CapMaintenanceManagement,
	CapFuelManagement,
	CapAnalytics,
	CapCompliance,
	CapSystemSettings,
	CapCommunication,
}

// DefaultPermissions returns the fixed capability set for a role. Unknown
// roles get an empty map. Super-admin is additionally short-circuited in
// Authorize, so the returned map is informational for that role.
func DefaultPermissions(role Role) map[Capability]bool {
	perms := make(map[Capability]bool, len(AllCapabilities))
	switch role {
	case RoleSuperAdmin:
		for _, c := range AllCapabilities {
			perms[c] = true
		}
	case RoleAdmin:
		for _, c := range AllCapabilities {
			perms[c] = true
		}
		perms[CapSystemSettings] = false
	case RoleFleetManager:
		perms[CapDashboard] = true
		perms[CapVehicleManagement] = true
		perms[CapTripManagement] = true
		perms[CapMaintenanceManagement] = true
		perms[CapFuelManagement] = true
		perms[CapAnalytics] = true
	case RoleDispatcher:
		perms[CapDashboard] = true
		perms[CapTripManagement] = true
		perms[CapCommunication] = true
	case RoleDriver:
		perms[CapDashboard] = true
		perms[CapFuelManagement] = true
	case RoleViewer:
		perms[CapDashboard] = true
		perms[CapAnalytics] = true
	case RoleUser:
		perms[CapDashboard] = true
	}
	return perms
}

// MergePermissions overlays explicit per-capability overrides on top of a
// role's default set. Overrides win per capability.
func MergePermissions(defaults, overrides map[Capability]bool) map[Capability]bool {
	merged := make(map[Capability]bool, len(defaults)+len(overrides))
	for c, v := range defaults {
		merged[c] = v
	}
	for c, v := range overrides {
		merged[c] = v
	}
	return merged
}
