// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer composes and sends messages. A zero Host disables sending,
// which is how test and development environments run.
type Mailer struct {
	cfg     Config
	logger  *slog.Logger
	printer *message.Printer
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New constructs a Mailer.
func New(cfg Config, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:     cfg,
		logger:  logger,
		printer: message.NewPrinter(language.English),
		send:    smtp.SendMail,
	}
}

// ReservationConfirmation describes a paid reservation for the
// confirmation message.
type ReservationConfirmation struct {
	To        string
	Reference string
	VenueName string
	StartsAt  time.Time
	Amount    int64
	Currency  string
}

// SendReservationConfirmed emails the guest after payment completes.
func (m *Mailer) SendReservationConfirmed(ctx context.Context, rc ReservationConfirmation) error {
	subject := fmt.Sprintf("Reservation %s confirmed", rc.Reference)
	body := m.printer.Sprintf(
		"Your reservation %s at %s on %s is confirmed.\nAmount paid: %s.\n",
		rc.Reference,
		rc.VenueName,
		rc.StartsAt.Format("Monday, 2 January 2006 at 15:04 MST"),
		FormatAmount(rc.Amount, rc.Currency),
	)
	return m.deliver(ctx, rc.To, subject, body)
}

// FormatAmount renders a minor-unit amount as a human readable string,
// e.g. 125000 USD -> "USD 1,250.00".
func FormatAmount(amount int64, currency string) string {
	p := message.NewPrinter(language.English)
	major := amount / 100
	minor := amount % 100
	if minor < 0 {
		minor = -minor
	}
	return p.Sprintf("%s %d.%02d", strings.ToUpper(currency), major, minor)
}

func (m *Mailer) deliver(ctx context.Context, to, subject, body string) error {
	if m.cfg.Host == "" {
		m.logger.Info("mail delivery disabled, dropping message",
			slog.String("to", to),
			slog.String("subject", subject),
		)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
