package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tidebook/tidebook/internal/authz"
	"github.com/tidebook/tidebook/internal/platform/httpx"
	"github.com/tidebook/tidebook/internal/shared"
)

const signatureHeader = "X-Webhook-Signature"

// Handler exposes payment endpoints and the gateway webhook.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	validate      *validator.Validate
	authz         authz.Middleware
	webhookSecret []byte
}

// NewHandler constructs the payments HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, az authz.Middleware, webhookSecret string) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		validate:      validator.New(),
		authz:         az,
		webhookSecret: []byte(webhookSecret),
	}
}

// MountRoutes registers authenticated payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authz.Require("payments", "create")).Post("/", h.CreateIntent)
	r.With(h.authz.Require("payments", "view")).Get("/{id}", h.Show)
}

// MountWebhook registers the unauthenticated gateway callback; it is
// protected by an HMAC signature instead of a bearer token.
func (h *Handler) MountWebhook(r chi.Router) {
	r.Post("/payments", h.Webhook)
}

func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p, err := h.service.CreateIntent(r.Context(), shared.ClaimFromContext(r.Context()), req)
	if err != nil {
		h.logger.Error("create payment intent failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, "payment intent created", p)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	p, err := h.service.Get(r.Context(), shared.ClaimFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "get payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "payment", p)
}

// Webhook handles gateway event deliveries. The response is 200 for
// anything processed or skipped, so the gateway stops retrying; only
// infrastructure failures return 5xx.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "unreadable body")
		return
	}
	if !h.verifySignature(body, r.Header.Get(signatureHeader)) {
		h.logger.Warn("webhook signature rejected")
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized", "invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid event payload")
		return
	}

	switch {
	case strings.HasPrefix(event.Type, "payment_intent."):
		var intent GatewayIntent
		if err := json.Unmarshal(event.Data, &intent); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid intent payload")
			return
		}
		p, err := h.service.Reconcile(r.Context(), event.ID, intent)
		if err != nil {
			h.respondError(w, "reconcile intent", err)
			return
		}
		httpx.JSON(w, http.StatusOK, "event processed", p)

	case strings.HasPrefix(event.Type, "refund."):
		var refund GatewayRefund
		if err := json.Unmarshal(event.Data, &refund); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid refund payload")
			return
		}
		p, err := h.service.ReconcileRefund(r.Context(), event.ID, refund.PaymentID, refund.Amount, refund.Reason)
		if err != nil {
			h.respondError(w, "reconcile refund", err)
			return
		}
		httpx.JSON(w, http.StatusOK, "event processed", p)

	default:
		// Unhandled event types are acknowledged, not errored.
		httpx.JSON(w, http.StatusOK, "event ignored", nil)
	}
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	if len(h.webhookSecret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrPaymentNotFound):
		httpx.Fail(w, http.StatusNotFound, "Not Found", "payment not found")
	case errors.Is(err, ErrInvalidPaymentState):
		httpx.Fail(w, http.StatusBadRequest, "Invalid State", err.Error())
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
