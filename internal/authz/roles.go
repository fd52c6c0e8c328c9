// Package authz implements role-based authorization over a fixed,
// totally ordered role hierarchy. A role inherits every grant declared
// for the roles below it.
package authz

import "strings"

// Role identifies a position in the hierarchy.
type Role string

const (
	RoleUser       Role = "USER"
	RoleEmployee   Role = "EMPLOYEE"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// hierarchy is the single place the total order is declared.
var hierarchy = []Role{RoleUser, RoleEmployee, RoleManager, RoleAdmin, RoleSuperAdmin}

// Rank returns the hierarchy index of a role, or -1 for anything
// unrecognized. Unknown roles rank below USER so every check on them
// fails closed.
func Rank(role Role) int {
	for i, r := range hierarchy {
		if r == role {
			return i
		}
	}
	return -1
}

// Parse normalizes a raw role string. It never fails: unknown values
// pass through unchanged and rank -1.
func Parse(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// Valid reports whether the role is part of the hierarchy.
func Valid(role Role) bool {
	return Rank(role) >= 0
}

// Roles returns the hierarchy in ascending rank order.
func Roles() []Role {
	out := make([]Role, len(hierarchy))
	copy(out, hierarchy)
	return out
}
