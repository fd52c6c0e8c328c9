package venues

import "time"

// Venue is a bookable location owned by a tenant.
type Venue struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	Country   string    `json:"country"`
	Timezone  string    `json:"timezone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateVenueRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=300"`
	City     *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country  string  `json:"country" validate:"required,len=2"`
	Timezone string  `json:"timezone" validate:"required,max=64"`
}

type UpdateVenueRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=300"`
	City     *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country  *string `json:"country,omitempty" validate:"omitempty,len=2"`
	Timezone *string `json:"timezone,omitempty" validate:"omitempty,max=64"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type ListVenuesRequest struct {
	TenantID int64   `json:"tenant_id"`
	Search   *string `json:"search,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
