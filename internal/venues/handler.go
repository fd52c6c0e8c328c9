package venues

import (
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

// Handler exposes venue endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler constructs the venues HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, az authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), authz: az}
}

// MountRoutes registers venue routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("venues", "view"))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.With(h.authz.Require("venues", "create")).Post("/", h.Create)
	r.With(h.authz.Require("venues", "edit")).Patch("/{id}", h.Update)
	r.With(h.authz.Require("venues", "delete")).Delete("/{id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVenueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	v, err := h.service.Create(r.Context(), shared.ClaimFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, "create venue", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, "venue created", v)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Get(r.Context(), shared.ClaimFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "get venue", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "venue", v)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListVenuesRequest{}
	q := r.URL.Query()
	if v := q.Get("search"); v != "" {
		req.Search = &v
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
		h.respondError(w, "list venues", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "venues", map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(req.Limit, req.Offset, total),
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req UpdateVenueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	v, err := h.service.Update(r.Context(), shared.ClaimFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, "update venue", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "venue updated", v)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), shared.ClaimFromContext(r.Context()), id); err != nil {
		h.respondError(w, "delete venue", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "venue deleted", nil)
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
	if errors.Is(err, ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, "Not Found", "venue not found")
		return
	}
	h.logger.Error(op+" failed", slog.Any("error", err))
	httpx.Fail(w, http.StatusInternalServerError, "Internal Error", "")
}
