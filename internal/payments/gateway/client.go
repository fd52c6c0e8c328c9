// Package gateway implements the HTTP client for the external payment
// processor's REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidebook/tidebook/internal/payments"
)

// Client talks to the payment processor.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New constructs a gateway client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type createIntentBody struct {
	Amount         int64          `json:"amount"`
	Currency       string         `json:"currency"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	IdempotencyKey string         `json:"-"`
}

// CreateIntent creates a new payment intent.
func (c *Client) CreateIntent(ctx context.Context, params payments.CreateIntentParams) (*payments.GatewayIntent, error) {
	body := createIntentBody{
		Amount:   params.Amount,
		Currency: params.Currency,
		Metadata: map[string]any{"reservation": params.ReservationRef},
	}
	return c.do(ctx, http.MethodPost, "/v1/payment_intents", body, params.IdempotencyKey)
}

// GetIntent fetches the current state of an intent.
func (c *Client) GetIntent(ctx context.Context, id string) (*payments.GatewayIntent, error) {
	return c.do(ctx, http.MethodGet, "/v1/payment_intents/"+id, nil, "")
}

// CancelIntent cancels an intent.
func (c *Client) CancelIntent(ctx context.Context, id string) (*payments.GatewayIntent, error) {
	return c.do(ctx, http.MethodPost, "/v1/payment_intents/"+id+"/cancel", nil, "")
}

func (c *Client) do(ctx context.Context, method, path string, body any, idempotencyKey string) (*payments.GatewayIntent, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gateway: %s %s: status %d: %s", method, path, resp.StatusCode, data)
	}

	var intent payments.GatewayIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("gateway: decode response: %w", err)
	}
	return &intent, nil
}

var _ payments.GatewayClient = (*Client)(nil)
