// Package httpapi composes the product, user and auth handlers into the
// single service router.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ProductHub/internal/auth"
	"ProductHub/internal/product"
	"ProductHub/internal/user"
	"ProductHub/pkg/kit"
)

type Deps struct {
	Log      *zap.Logger
	Products *product.Store
	Users    *user.Store
	JWT      *auth.TokenMaker
}

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

const readyTimeout = 2 * time.Second

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps))

	authServer := &auth.Server{
		Log:  deps.Log,
		Auth: &auth.Authenticator{Users: deps.Users},
		JWT:  deps.JWT,
	}
	productServer := &product.Server{Log: deps.Log, Store: deps.Products}
	userServer := &user.Server{Log: deps.Log, Store: deps.Users}

	r.Mount("/auth", authServer.Routes())

	r.Mount("/api/products", productServer.Routes())

	// User management mirrors the original admin console: admin only.
	r.Route("/api/users", func(ur chi.Router) {
		ur.Use(auth.RequireJWT(deps.JWT))
		ur.Use(auth.RequireRole(user.RoleAdmin))
		ur.Mount("/", userServer.Routes())
	})

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := deps.Products.Ping(ctx); err != nil {
			if deps.Log != nil {
				deps.Log.Warn("readyz failed: products", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "products store not ready", nil)
			return
		}

		if err := deps.Users.Ping(ctx); err != nil {
			if deps.Log != nil {
				deps.Log.Warn("readyz failed: users", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "users store not ready", nil)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
