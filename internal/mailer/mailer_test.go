package mailer

import (
	"context"
	"io"
	"log/slog"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount   int64
		currency string
		want     string
	}{
		{125000, "usd", "USD 1,250.00"},
		{99, "EUR", "EUR 0.99"},
		{100, "GBP", "GBP 1.00"},
		{1000000000, "IDR", "IDR 10,000,000.00"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatAmount(tc.amount, tc.currency))
	}
}

func TestSendReservationConfirmed(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := New(Config{Host: "mail.test", Port: 587, From: "noreply@tidebook.test"}, discardLogger())
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.SendReservationConfirmed(context.Background(), ReservationConfirmation{
		To:        "guest@example.test",
		Reference: "RSV-AB12CD34",
		VenueName: "Harbor Spa",
		StartsAt:  time.Date(2025, 7, 4, 14, 30, 0, 0, time.UTC),
		Amount:    125000,
		Currency:  "USD",
	})
	require.NoError(t, err)
	require.Equal(t, "mail.test:587", gotAddr)
	require.Equal(t, "noreply@tidebook.test", gotFrom)
	require.Equal(t, []string{"guest@example.test"}, gotTo)
	require.Contains(t, string(gotMsg), "Subject: Reservation RSV-AB12CD34 confirmed")
	require.Contains(t, string(gotMsg), "Harbor Spa")
	require.Contains(t, string(gotMsg), "USD 1,250.00")
}

func TestDeliveryDisabledWithoutHost(t *testing.T) {
	m := New(Config{}, discardLogger())
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called when delivery is disabled")
		return nil
	}
	err := m.SendReservationConfirmed(context.Background(), ReservationConfirmation{To: "guest@example.test"})
	require.NoError(t, err)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
