package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atrium-app/atrium/internal/accounts"
	"github.com/atrium-app/atrium/internal/identity"
	"github.com/atrium-app/atrium/internal/observability"
	"github.com/atrium-app/atrium/internal/profile"
	"github.com/atrium-app/atrium/internal/roles"
	"github.com/atrium-app/atrium/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	IdentityHandler *identity.Handler
	AccountsHandler *accounts.Handler
	ProfileHandler  *profile.Handler
	RolesHandler    *roles.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Atrium defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	params.IdentityHandler.MountRoutes(r)
	params.AccountsHandler.MountRoutes(r)
	params.ProfileHandler.MountRoutes(r)
	params.RolesHandler.MountRoutes(r)

	return r
}
