package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	if g.tracing != nil {
		r.Use(g.tracing)
	}

	// Public, no auth required.
	r.Get("/", g.health.liveness)
	r.Get("/health", g.health.health)
	r.Handle("/metrics", g.metrics.Handler())

	// Poll endpoint. Token auth happens inside the body.
	r.Post("/get_new_messages/", g.poll.ServeHTTP)

	// Webhooks. Each channel validates its own provider secret.
	r.Post("/{provider}/webhook", g.dispatcher.handlePost)
	r.Get("/{provider}/webhook", g.dispatcher.handleGet)

	// Admin endpoints require auth. Not mounted if no auth configured.
	if g.config.Admin.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Admin))
			r.Get("/status", g.health.status)
			r.Route("/admin", func(r chi.Router) {
				r.Get("/beta_codes", g.admin.listBetaCodes)
				r.Post("/beta_codes", g.admin.createBetaCodes)
				r.Post("/send_service_message", g.admin.sendServiceMessage)
				r.Get("/health", g.health.health)
			})
		})
	}

	return r
}
