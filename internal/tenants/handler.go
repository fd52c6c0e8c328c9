package tenants

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tidebook/tidebook/internal/authz"
	"github.com/tidebook/tidebook/internal/platform/httpx"
)

// Handler exposes tenant administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler constructs the tenants HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, az authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), authz: az}
}

// MountRoutes registers tenant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("tenants", "view"))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.With(h.authz.Require("tenants", "create")).Post("/", h.Create)
	r.With(h.authz.Require("tenants", "edit")).Patch("/{id}", h.Update)
	r.With(h.authz.Require("tenants", "delete")).Delete("/{id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, "create tenant", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, "tenant created", t)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list tenants", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "tenants", map[string]any{"items": items})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get tenant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "tenant", t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req UpdateTenantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, "update tenant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "tenant updated", t)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete tenant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "tenant deleted", nil)
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
		httpx.Fail(w, http.StatusNotFound, "Not Found", "tenant not found")
	case errors.Is(err, ErrSlugTaken):
		httpx.Fail(w, http.StatusConflict, "Conflict", "slug already taken")
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
