// Package tenants manages the organizations the platform hosts.
package tenants

import "time"

// Tenant is an organization. All domain records hang off one.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Plan      string    `json:"plan"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=64,lowercase"`
	Plan string `json:"plan" validate:"omitempty,oneof=free standard enterprise"`
}

type UpdateTenantRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Plan     *string `json:"plan,omitempty" validate:"omitempty,oneof=free standard enterprise"`
	IsActive *bool   `json:"is_active,omitempty"`
}
