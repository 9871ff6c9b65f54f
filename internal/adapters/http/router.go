// Package http provides the inbound HTTP adapter including routing and server lifecycle.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/storefeed/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/storefeed/internal/adapters/http/middleware"
)

// Routes groups what NewRouter registers.
type Routes struct {
	Health  *handlers.HealthHandler
	Stores  *handlers.StoreHandler
	Ingest  *handlers.IngestHandler
	Session *handlers.SessionHandler

	// Gate guards the /app pages.
	Gate middleware.Navigator
	// PrerenderToken authenticates prerender requests to /app. Empty
	// disables the prerender exemption.
	PrerenderToken string

	// APITimeout bounds each /api/v1 request. Zero disables it.
	APITimeout time.Duration
}

// NewRouter creates an HTTP handler with all application routes registered.
// Middleware is applied globally in the order given.
func NewRouter(routes Routes, middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	// Health endpoints (outside /api/v1 prefix).
	r.Get("/health/live", routes.Health.Liveness)
	r.Get("/health/ready", routes.Health.Readiness)

	// API v1 routes.
	r.Route("/api/v1", func(r chi.Router) {
		if routes.APITimeout > 0 {
			r.Use(middleware.Timeout(routes.APITimeout))
		}

		// Store reads.
		r.Get("/stores", routes.Stores.ListStores)
		r.Get("/stores/{domain}", routes.Stores.GetStore)
		r.Get("/stores/{domain}/{id}", routes.Stores.GetEntity)

		// Event ingestion.
		r.Post("/events", routes.Ingest.PublishEvent)

		// Session.
		r.Get("/session", routes.Session.GetSession)
		r.Post("/session/login", routes.Session.Login)
	})

	// Gated navigations.
	r.Route("/app", func(r chi.Router) {
		r.Use(middleware.SessionGate(routes.Gate, routes.PrerenderToken))
		r.Get("/", routes.Session.Page)
		r.Get("/*", routes.Session.Page)
	})

	return r
}
