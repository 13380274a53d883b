// Package http assembles the public HTTP surface: middleware chain, route
// groups, and operational endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	adminhandler "volunity/internal/admin/handler"
	eventhandler "volunity/internal/event/handler"
	identityhandler "volunity/internal/identity/handler"
	registrationhandler "volunity/internal/registration/handler"
	statshandler "volunity/internal/stats/handler"
	"volunity/pkg/authz"
	mwauth "volunity/pkg/platform/middleware/auth"
	"volunity/pkg/platform/middleware/requestid"
	"volunity/pkg/platform/middleware/requesttime"
)

// Handlers collects the domain handlers the router mounts.
type Handlers struct {
	Identity      *identityhandler.Handler
	Events        *eventhandler.Handler
	Registrations *registrationhandler.Handler
	Admin         *adminhandler.Handler
	Stats         *statshandler.Handler
}

// Deps collects the cross-cutting dependencies of the middleware chain.
type Deps struct {
	Tokens         mwauth.TokenValidator
	Revocations    mwauth.RevocationChecker
	Logger         *slog.Logger
	AllowedOrigins []string
	Health         func(ctx context.Context) error
}

// NewRouter builds the chi router with the full middleware chain and all
// route groups mounted under /api.
func NewRouter(h Handlers, d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	requireAuth := mwauth.RequireAuth(d.Tokens, d.Revocations, d.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			h.Identity.RegisterPublic(r)
			h.Events.RegisterPublic(r)
			h.Stats.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			h.Identity.RegisterProtected(r)
			h.Events.RegisterProtected(r)
			h.Registrations.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(mwauth.RequireRole(d.Logger, authz.RoleOrganizer, authz.RoleAdmin))
			h.Events.RegisterManage(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(mwauth.RequireRole(d.Logger, authz.RoleAdmin))
			h.Admin.Register(r)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthHandler(d.Health))

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unhealthy"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
