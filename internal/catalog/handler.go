package catalog

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

// Handler exposes catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	manager  *Manager
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler constructs the catalog HTTP handler.
func NewHandler(logger *slog.Logger, manager *Manager, az authz.Middleware) *Handler {
	return &Handler{logger: logger, manager: manager, validate: validator.New(), authz: az}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("services", "view"))
		r.Get("/{id}", h.Show)
		r.Get("/venue/{venueID}", h.ListByVenue)
	})
	r.With(h.authz.Require("services", "create")).Post("/", h.Create)
	r.With(h.authz.Require("services", "edit")).Patch("/{id}", h.Update)
	r.With(h.authz.Require("services", "delete")).Delete("/{id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	s, err := h.manager.Create(r.Context(), shared.ClaimFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, "create service", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, "service created", s)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	s, err := h.manager.Get(r.Context(), shared.ClaimFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, "get service", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "service", s)
}

func (h *Handler) ListByVenue(w http.ResponseWriter, r *http.Request) {
	venueID, ok := h.parseID(w, r, "venueID")
	if !ok {
		return
	}
	items, err := h.manager.ListByVenue(r.Context(), shared.ClaimFromContext(r.Context()), venueID)
	if err != nil {
		h.respondError(w, "list services", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "services", map[string]any{"items": items})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	s, err := h.manager.Update(r.Context(), shared.ClaimFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, "update service", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "service updated", s)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.manager.Delete(r.Context(), shared.ClaimFromContext(r.Context()), id); err != nil {
		h.respondError(w, "delete service", err)
		return
	}
	httpx.JSON(w, http.StatusOK, "service deleted", nil)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, "Not Found", "service not found")
		return
	}
	h.logger.Error(op+" failed", slog.Any("error", err))
	httpx.Fail(w, http.StatusInternalServerError, "Internal Error", "")
}
