package payments

import "encoding/json"

type CreatePaymentRequest struct {
	ReservationID int64  `json:"reservation_id" validate:"required,gt=0"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Currency      string `json:"currency" validate:"required,len=3,uppercase"`
}

// webhookEvent is the envelope the gateway posts to the webhook
// endpoint. Data holds either an intent or a refund object depending
// on the event type prefix.
type webhookEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
