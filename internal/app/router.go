package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tidebook/tidebook/internal/audit"
	"github.com/tidebook/tidebook/internal/auth"
	"github.com/tidebook/tidebook/internal/catalog"
	"github.com/tidebook/tidebook/internal/observability"
	"github.com/tidebook/tidebook/internal/payments"
	"github.com/tidebook/tidebook/internal/reservations"
	"github.com/tidebook/tidebook/internal/tenants"
	"github.com/tidebook/tidebook/internal/users"
	"github.com/tidebook/tidebook/internal/venues"
	"github.com/tidebook/tidebook/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	Authn auth.Middleware

	AuthHandler        *auth.Handler
	VenuesHandler      *venues.Handler
	CatalogHandler     *catalog.Handler
	ReservationHandler *reservations.Handler
	PaymentsHandler    *payments.Handler
	UsersHandler       *users.Handler
	TenantsHandler     *tenants.Handler
	AuditHandler       *audit.Handler
	JobsHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with platform defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	// Gateway webhooks authenticate by signature, not bearer token.
	r.Route("/webhooks", func(r chi.Router) {
		params.PaymentsHandler.MountWebhook(r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.Authn.Authenticate)

			r.Route("/venues", params.VenuesHandler.MountRoutes)
			r.Route("/services", params.CatalogHandler.MountRoutes)
			r.Route("/reservations", params.ReservationHandler.MountRoutes)
			r.Route("/payments", params.PaymentsHandler.MountRoutes)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/tenants", params.TenantsHandler.MountRoutes)
			r.Route("/audit", params.AuditHandler.MountRoutes)
			if params.JobsHandler != nil {
				r.Route("/jobs", params.JobsHandler.MountRoutes)
			}
		})
	})

	return r
}
