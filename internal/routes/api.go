package routes

import (
	"github.com/hsrini/wellness/internal/middleware"
	"github.com/hsrini/wellness/internal/router"
)

// Register wires the cart API onto the router.
//
// Public routes serve the shopper flow; the listing and dispatch
// endpoints are operational tooling behind the admin bearer token.
func Register(r *router.Router, deps Deps) {
	// Shopper-facing cart flow
	r.Post("/api/cart/add", deps.CartHandler.Add)
	r.Get("/api/cart/{uuid}", deps.CartHandler.Get)
	r.Post("/api/cart/checkout/{uuid}", deps.CartHandler.Checkout)

	// Order management
	admin := r.Group(middleware.AdminAuth(deps.AdminToken))
	admin.Get("/api/cart", deps.CartHandler.List)
	admin.Get("/api/cart/{uuid}/dispatch", deps.CartHandler.Dispatch)

	// Probes and metrics
	r.Get("/health", deps.HealthHandler.Live)
	r.Get("/health/ready", deps.HealthHandler.Ready)
	if deps.MetricsHandler != nil {
		r.Handle("GET", "/metrics", deps.MetricsHandler)
	}
}
