// Package router arma el árbol de rutas HTTP.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	connectctrl "github.com/dbMundada/nango/internal/http/controllers/connect"
	healthctrl "github.com/dbMundada/nango/internal/http/controllers/health"
	httperrors "github.com/dbMundada/nango/internal/http/errors"
	mw "github.com/dbMundada/nango/internal/http/middlewares"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Sessions *connectctrl.SessionsController
	Health   *healthctrl.HealthController

	// TenantAuth valida el JWT del tenant (requerido para crear sesiones).
	TenantAuth mw.Middleware
	// RateLimit limita la creación por tenant. Opcional.
	RateLimit mw.Middleware
	// Metrics instrumenta las rutas de API. Opcional.
	Metrics mw.Middleware
	// MetricsHandler expone /metrics. Opcional.
	MetricsHandler http.Handler
}

// New crea el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrMethodNotAllowed)
	})

	// Health: sin logging (muy frecuentes)
	if d.Health != nil {
		r.Group(func(r chi.Router) {
			r.Use(mw.WithRecover(), mw.WithRequestID())
			r.Get("/healthz", d.Health.Healthz)
			r.Get("/readyz", d.Health.Readyz)
		})
	}
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", mw.Chain(d.MetricsHandler, mw.WithRecover()))
	}

	if d.Sessions != nil {
		r.Group(func(r chi.Router) {
			r.Use(apiChain(d.Metrics)...)

			create := []func(http.Handler) http.Handler{d.TenantAuth}
			if d.RateLimit != nil {
				create = append(create, d.RateLimit)
			}
			r.With(create...).Post("/connect/sessions", d.Sessions.Create)
			r.Get("/connect/session", d.Sessions.Get)
		})
	}

	return r
}

// apiChain es el chain base de la API: recover, request id, headers,
// logging y métricas.
func apiChain(metrics mw.Middleware) []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithNoStore(),
		mw.WithLogging(),
	}
	if metrics != nil {
		chain = append(chain, metrics)
	}
	return chain
}
