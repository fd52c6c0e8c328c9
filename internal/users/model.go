// Package users provides tenant-scoped account administration.
package users

import (
	"time"

	"github.com/tidebook/tidebook/internal/authz"
)

// User is the administrative view of an account. The password hash
// never leaves the repository layer.
type User struct {
	ID        int64      `json:"id"`
	TenantID  int64      `json:"tenant_id"`
	Email     string     `json:"email"`
	Role      authz.Role `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ListUsersRequest struct {
	TenantID int64
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Limit    int     `json:"limit,omitempty" validate:"omitempty,gte=1,lte=200"`
	Offset   int     `json:"offset,omitempty" validate:"omitempty,gte=0"`
}

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
