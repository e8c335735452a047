package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/learnova/learnova/internal/access"
	"github.com/learnova/learnova/internal/auth"
	"github.com/learnova/learnova/internal/observability"
	"github.com/learnova/learnova/internal/shared"
	"github.com/learnova/learnova/internal/shell"
	"github.com/learnova/learnova/internal/tenant"
	"github.com/learnova/learnova/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Tenants        *tenant.Resolver
	AuthHandler    *auth.Handler
	ShellHandler   *shell.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Learnova defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Tenants:        params.Tenants,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		if params.Config == nil || !params.Config.IsProduction() {
			r.Use(chimw.Logger)
		}

		r.Route("/api", func(r chi.Router) {
			r.Route("/auth", params.AuthHandler.MountRoutes)
			params.ShellHandler.MountRoutes(r)
			if params.JobHandler != nil {
				r.With(auth.RequireAny(access.PermAuditView)).Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
