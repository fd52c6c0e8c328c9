package reservations

import "time"

type CreateReservationRequest struct {
	VenueID   int64     `json:"venue_id" validate:"required,gt=0"`
	ServiceID int64     `json:"service_id" validate:"required,gt=0"`
	StartsAt  time.Time `json:"starts_at" validate:"required"`
	EndsAt    time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	PartySize int       `json:"party_size" validate:"omitempty,gte=1,lte=500"`
	Notes     *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ListReservationsRequest struct {
	TenantID int64      `json:"tenant_id" validate:"required,gt=0"`
	VenueID  *int64     `json:"venue_id,omitempty"`
	UserID   *int64     `json:"user_id,omitempty"`
	Status   *Status    `json:"status,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}
