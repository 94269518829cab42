package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/Principal/internal/middleware"
)

// RouteOptions carries the middleware that only some routes use.
type RouteOptions struct {
	// RateLimit guards the routes that start work. Nil disables limiting.
	RateLimit *middleware.RateLimiter
	// AdminKeyHash is the bcrypt hash guarding specialist management.
	AdminKeyHash string
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	limited := func(next http.Handler) http.Handler { return next }
	if opts.RateLimit != nil {
		limited = opts.RateLimit.Handler
	}

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})

		// Processing
		r.With(limited).Post("/process", h.ProcessRequest)
		r.With(limited).Post("/requests", h.SubmitRequest)
		r.Get("/requests/{processingID}", h.PollRequest)
		r.Delete("/requests/{processingID}", h.CancelRequest)

		// Recorded responses
		r.Get("/responses", h.ListResponses)
		r.Get("/responses/{requestID}", h.GetResponse)

		// Specialists
		r.Get("/agents/status", h.AgentsStatus)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminKey(opts.AdminKeyHash))
			r.Post("/agents", h.AddSpecialist)
			r.Delete("/agents/{name}", h.RemoveSpecialist)
		})
	})
}
