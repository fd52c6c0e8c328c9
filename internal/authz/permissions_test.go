package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHierarchyIsCumulative(t *testing.T) {
	roles := Roles()
	for i := 1; i < len(roles); i++ {
		lower := PermissionsFor(roles[i-1])
		higher := PermissionsFor(roles[i])
		for key := range lower {
			_, ok := higher[key]
			require.Truef(t, ok, "%s should inherit %q from %s", roles[i], key, roles[i-1])
		}
	}
}

func TestSuperAdminBypassesTable(t *testing.T) {
	cases := []struct {
		module string
		action string
	}{
		{"reservations", "create"},
		{"tenants", "delete"},
		{"nonexistent", "module"},
		{"", ""},
	}
	for _, tc := range cases {
		require.True(t, IsAuthorized(RoleSuperAdmin, tc.module, tc.action),
			"super admin must be authorized for %s:%s", tc.module, tc.action)
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	for _, role := range []Role{"", "GUEST", "root", "admin "} {
		require.Equal(t, -1, Rank(role))
		require.Empty(t, PermissionsFor(role))
		require.False(t, IsAuthorized(role, "venues", "view"))
		require.False(t, IsAuthorized(role, "reservations", "create"))
	}
}

func TestRankOrdering(t *testing.T) {
	require.Equal(t, 0, Rank(RoleUser))
	require.Equal(t, 1, Rank(RoleEmployee))
	require.Equal(t, 2, Rank(RoleManager))
	require.Equal(t, 3, Rank(RoleAdmin))
	require.Equal(t, 4, Rank(RoleSuperAdmin))
}

func TestGrantBoundaries(t *testing.T) {
	cases := []struct {
		role   Role
		module string
		action string
		want   bool
	}{
		{RoleUser, "reservations", "create", true},
		{RoleUser, "reservations", "checkin", false},
		{RoleEmployee, "reservations", "checkin", true},
		{RoleEmployee, "payments", "refund", false},
		{RoleManager, "payments", "refund", true},
		{RoleManager, "users", "assign_role", false},
		{RoleAdmin, "users", "assign_role", true},
		{RoleAdmin, "tenants", "create", false},
		{RoleUser, "jobs", "view", false},
		{RoleManager, "jobs", "view", false},
		{RoleAdmin, "jobs", "view", true},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, IsAuthorized(tc.role, tc.module, tc.action),
			"%s %s:%s", tc.role, tc.module, tc.action)
	}
}

func TestParse(t *testing.T) {
	require.Equal(t, RoleAdmin, Parse(" admin "))
	require.Equal(t, RoleSuperAdmin, Parse("super_admin"))
	require.False(t, Valid(Parse("operator")))
}
