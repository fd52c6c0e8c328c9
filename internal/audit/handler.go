package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tidebook/tidebook/internal/authz"
	"github.com/tidebook/tidebook/internal/platform/httpx"
	"github.com/tidebook/tidebook/internal/shared"
)

// Handler exposes the audit trail.
type Handler struct {
	logger   *slog.Logger
	recorder *Recorder
	authz    authz.Middleware
}

// NewHandler constructs the audit HTTP handler.
func NewHandler(logger *slog.Logger, recorder *Recorder, az authz.Middleware) *Handler {
	return &Handler{logger: logger, recorder: recorder, authz: az}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authz.Require("audit", "view")).Get("/", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claim := shared.ClaimFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.recorder.List(r.Context(), claim.TenantID, limit, offset)
	if err != nil {
		h.logger.Error("list audit events failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, "audit events", map[string]any{"items": items})
}
