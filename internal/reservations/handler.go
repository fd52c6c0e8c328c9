package reservations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tidebook/tidebook/internal/authz"
	"github.com/tidebook/tidebook/internal/platform/httpx"
	"github.com/tidebook/tidebook/internal/shared"
)

// Handler exposes reservation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler constructs the reservations HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, az authz.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		authz:    az,
	}
}

// MountRoutes registers reservation routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("reservations", "view"))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("reservations", "create"))
		r.Post("/", h.Create)
	})
	r.With(h.authz.Require("reservations", "checkin")).Post("/{id}/checkin", h.CheckIn)
	r.With(h.authz.Require("reservations", "start")).Post("/{id}/start", h.Start)
	r.With(h.authz.Require("reservations", "complete")).Post("/{id}/complete", h.Complete)
	r.With(h.authz.Require("reservations", "cancel")).Post("/{id}/cancel", h.Cancel)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	res, err := h.service.Create(r.Context(), shared.ClaimFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, "create reservation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, "reservation created", res)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	res, err := h.service.Get(r.Context(), shared.ClaimFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "get reservation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "reservation", res)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListReservationsRequest{}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	if v, err := strconv.ParseInt(q.Get("venue_id"), 10, 64); err == nil && v > 0 {
		req.VenueID = &v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		req.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		req.Offset = v
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}

	items, total, err := h.service.List(r.Context(), shared.ClaimFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, "list reservations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "reservations", map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(req.Limit, req.Offset, total),
	})
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.CheckIn, "reservation checked in")
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Start, "reservation started")
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Complete, "reservation completed")
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Cancel, "reservation cancelled")
}

func (h *Handler) lifecycle(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, claim *shared.Claim, id int64) (*Reservation, error),
	message string,
) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	res, err := op(r.Context(), shared.ClaimFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "reservation transition", err)
		return
	}
	httpx.JSON(w, http.StatusOK, message, res)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "Not Found", "reservation not found")
	case errors.Is(err, ErrSlotTaken):
		httpx.Fail(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrIllegalTransition):
		httpx.Fail(w, http.StatusBadRequest, "Invalid State", err.Error())
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
