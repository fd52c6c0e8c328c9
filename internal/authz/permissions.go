package authz

// PermissionKey is a "module:action" capability string.
type PermissionKey = string

// grants declares the capabilities introduced at each rank. A role's
// effective set is the union of grants at its rank and every rank
// below it; nothing here is ever consulted for SUPER_ADMIN, which
// bypasses the table entirely.
var grants = map[Role][]PermissionKey{
	RoleUser: {
		"venues:view",
		"services:view",
		"reservations:create",
		"reservations:view",
		"payments:create",
		"payments:view",
	},
	RoleEmployee: {
		"reservations:checkin",
		"reservations:start",
		"reservations:complete",
	},
	RoleManager: {
		"venues:create",
		"venues:edit",
		"services:create",
		"services:edit",
		"reservations:cancel",
		"payments:refund",
	},
	RoleAdmin: {
		"venues:delete",
		"services:delete",
		"users:view",
		"users:create",
		"users:edit",
		"users:assign_role",
		"audit:view",
		"jobs:view",
	},
	RoleSuperAdmin: {
		"tenants:view",
		"tenants:create",
		"tenants:edit",
		"tenants:delete",
	},
}

// PermissionsFor returns the effective permission set for a role:
// the union of grants at every rank at or below the role's rank.
// The set is rebuilt on each call; the table is small and static.
func PermissionsFor(role Role) map[PermissionKey]struct{} {
	rank := Rank(role)
	set := make(map[PermissionKey]struct{})
	if rank < 0 {
		return set
	}
	for i := 0; i <= rank; i++ {
		for _, key := range grants[hierarchy[i]] {
			set[key] = struct{}{}
		}
	}
	return set
}

// IsAuthorized reports whether the role covers module:action.
// SUPER_ADMIN is authorized for every check, declared or not.
// Unrecognized roles are denied everything.
func IsAuthorized(role Role, module, action string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	if Rank(role) < 0 {
		return false
	}
	_, ok := PermissionsFor(role)[module+":"+action]
	return ok
}
