package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPermissionsSuperAdmin(t *testing.T) {
	perms := DefaultPermissions(RoleSuperAdmin)

	for _, c := range AllCapabilities {
		assert.True(t, perms[c], "super-admin should hold %s", c)
	}
}

func TestDefaultPermissionsAdminLacksSystemSettings(t *testing.T) {
	perms := DefaultPermissions(RoleAdmin)

	assert.False(t, perms[CapSystemSettings])
	assert.True(t, perms[CapUserManagement])
	assert.True(t, perms[CapVehicleManagement])
	assert.True(t, perms[CapCompliance])
}

func TestDefaultPermissionsPerRole(t *testing.T) {
	tests := []struct {
		role    Role
		granted []Capability
		denied  []Capability
	}{
		{
			role:    RoleFleetManager,
			granted: []Capability{CapDashboard, CapVehicleManagement, CapTripManagement, CapMaintenanceManagement, CapFuelManagement, CapAnalytics},
			denied:  []Capability{CapUserManagement, CapSystemSettings, CapCompliance, CapCommunication},
		},
		{
			role:    RoleDispatcher,
			granted: []Capability{CapDashboard, CapTripManagement, CapCommunication},
			denied:  []Capability{CapVehicleManagement, CapUserManagement, CapAnalytics},
		},
		{
			role:    RoleDriver,
			granted: []Capability{CapDashboard, CapFuelManagement},
			denied:  []Capability{CapTripManagement, CapVehicleManagement},
		},
		{
			role:    RoleViewer,
			granted: []Capability{CapDashboard, CapAnalytics},
			denied:  []Capability{CapTripManagement, CapFuelManagement},
		},
		{
			role:    RoleUser,
			granted: []Capability{CapDashboard},
			denied:  []Capability{CapAnalytics, CapTripManagement, CapUserManagement},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			perms := DefaultPermissions(tt.role)
			for _, c := range tt.granted {
				assert.True(t, perms[c], "%s should hold %s", tt.role, c)
			}
			for _, c := range tt.denied {
				assert.False(t, perms[c], "%s should not hold %s", tt.role, c)
			}
		})
	}
}

func TestDefaultPermissionsUnknownRole(t *testing.T) {
	perms := DefaultPermissions(Role("intern"))

	for _, c := range AllCapabilities {
		assert.False(t, perms[c])
	}
}

func TestMergePermissionsOverrideWins(t *testing.T) {
	defaults := DefaultPermissions(RoleDriver)
	overrides := map[Capability]bool{
		CapFuelManagement: false,
		CapAnalytics:      true,
	}

	merged := MergePermissions(defaults, overrides)

	assert.False(t, merged[CapFuelManagement], "override should revoke the default grant")
	assert.True(t, merged[CapAnalytics], "override should add a capability")
	assert.True(t, merged[CapDashboard], "untouched defaults survive the merge")
}

func TestMergePermissionsDoesNotMutateInputs(t *testing.T) {
	defaults := DefaultPermissions(RoleViewer)
	MergePermissions(defaults, map[Capability]bool{CapDashboard: false})

	assert.True(t, defaults[CapDashboard])
}
