package routes

import (
	"net/http"

	"github.com/hsrini/wellness/internal/handler/api"
)

// Deps contains the handlers and middleware configuration the route
// table needs.
type Deps struct {
	CartHandler   *api.CartHandler
	HealthHandler *api.HealthHandler

	// AdminToken guards the order-management endpoints.
	AdminToken string

	// MetricsHandler serves the Prometheus scrape endpoint. Optional.
	MetricsHandler http.Handler
}
