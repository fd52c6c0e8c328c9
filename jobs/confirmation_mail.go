package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tidebook/tidebook/internal/jobs"
	"github.com/tidebook/tidebook/internal/mailer"
	"github.com/tidebook/tidebook/internal/payments"
	"github.com/tidebook/tidebook/internal/reservations"
	"github.com/tidebook/tidebook/internal/users"
	"github.com/tidebook/tidebook/internal/venues"
)

// PaymentDirectory looks up payments for the mail job.
type PaymentDirectory interface {
	Get(ctx context.Context, id int64) (*payments.Payment, error)
}

// ReservationDirectory looks up reservations for the mail job.
type ReservationDirectory interface {
	Get(ctx context.Context, id int64) (*reservations.Reservation, error)
}

// VenueDirectory looks up venues for the mail job.
type VenueDirectory interface {
	Get(ctx context.Context, id int64) (*venues.Venue, error)
}

// UserDirectory looks up accounts for the mail job.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

// ConfirmationSender delivers the confirmation message.
type ConfirmationSender interface {
	SendReservationConfirmed(ctx context.Context, rc mailer.ReservationConfirmation) error
}

// ConfirmationMailJob assembles and sends the guest confirmation email
// once payment reconciliation confirms a reservation.
type ConfirmationMailJob struct {
	Payments     PaymentDirectory
	Reservations ReservationDirectory
	Venues       VenueDirectory
	Users        UserDirectory
	Mailer       ConfirmationSender
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
}

// Handle executes the confirmation mail job.
func (j *ConfirmationMailJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Payments == nil || j.Reservations == nil || j.Users == nil || j.Mailer == nil {
		return errors.New("confirmation mail: dependencies not configured")
	}
	var payload ConfirmationMailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskConfirmationMail)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	payment, err := j.Payments.Get(ctx, payload.PaymentID)
	if err != nil {
		resultErr = fmt.Errorf("confirmation mail: payment %d: %w", payload.PaymentID, err)
		return resultErr
	}
	reservation, err := j.Reservations.Get(ctx, payload.ReservationID)
	if err != nil {
		resultErr = fmt.Errorf("confirmation mail: reservation %d: %w", payload.ReservationID, err)
		return resultErr
	}
	guest, err := j.Users.Get(ctx, reservation.UserID)
	if err != nil {
		resultErr = fmt.Errorf("confirmation mail: user %d: %w", reservation.UserID, err)
		return resultErr
	}

	venueName := ""
	if j.Venues != nil {
		if venue, err := j.Venues.Get(ctx, reservation.VenueID); err == nil {
			venueName = venue.Name
		} else {
			j.log().Warn("confirmation mail: venue lookup",
				slog.Int64("venue_id", reservation.VenueID), slog.Any("error", err))
		}
	}

	rc := mailer.ReservationConfirmation{
		To:        guest.Email,
		Reference: reservation.Reference,
		VenueName: venueName,
		StartsAt:  reservation.StartsAt,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
	}
	if err := j.Mailer.SendReservationConfirmed(ctx, rc); err != nil {
		resultErr = err
		return resultErr
	}

	j.log().Info("confirmation mail sent",
		slog.String("reference", reservation.Reference),
		slog.Int64("payment_id", payment.ID),
	)
	return resultErr
}

func (j *ConfirmationMailJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
