// Package catalog manages the bookable services venues offer.
package catalog

import "time"

// Service is a bookable offering at a venue. Price is in the
// currency's minor unit.
type Service struct {
	ID              int64     `json:"id"`
	TenantID        int64     `json:"tenant_id"`
	VenueID         int64     `json:"venue_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           int64     `json:"price"`
	Currency        string    `json:"currency"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateServiceRequest struct {
	VenueID         int64   `json:"venue_id" validate:"required,gt=0"`
	Name            string  `json:"name" validate:"required,max=200"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gte=5,lte=1440"`
	Price           int64   `json:"price" validate:"required,gt=0"`
	Currency        string  `json:"currency" validate:"required,len=3,uppercase"`
}

type UpdateServiceRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,gte=5,lte=1440"`
	Price           *int64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	IsActive        *bool   `json:"is_active,omitempty"`
}
