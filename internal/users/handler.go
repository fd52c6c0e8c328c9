package users

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

// Handler exposes account administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler constructs the users HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, az authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), authz: az}
}

// MountRoutes registers user administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("users", "view"))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.With(h.authz.Require("users", "assign_role")).Put("/{id}/role", h.AssignRole)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("users", "edit"))
		r.Post("/{id}/activate", h.Activate)
		r.Post("/{id}/deactivate", h.Deactivate)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListUsersRequest{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if role := r.URL.Query().Get("role"); role != "" {
		req.Role = &role
	}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active := raw == "true"
		req.IsActive = &active
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}
	items, total, err := h.service.List(r.Context(), shared.ClaimFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "users", map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(req.Limit, req.Offset, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	u, err := h.service.Get(r.Context(), shared.ClaimFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "user", u)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req AssignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	u, err := h.service.AssignRole(r.Context(), shared.ClaimFromContext(r.Context()), id, req.Role)
	if err != nil {
		h.respondError(w, "assign role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "role assigned", u)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "user activated")
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "user deactivated")
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	u, err := h.service.SetActive(r.Context(), shared.ClaimFromContext(r.Context()), id, active)
	if err != nil {
		h.respondError(w, "set active", err)
		return
	}
	httpx.JSON(w, http.StatusOK, message, u)
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
		httpx.Fail(w, http.StatusNotFound, "Not Found", "user not found")
	case errors.Is(err, ErrUnknownRole):
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrRoleTooHigh), errors.Is(err, ErrSelfDisable):
		httpx.Fail(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}
