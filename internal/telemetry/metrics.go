// Package telemetry exposes business-level Prometheus metrics for the
// storefront dashboards.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds counters and histograms for the cart funnel.
type BusinessMetrics struct {
	CartsCreated     prometheus.Counter
	ItemsApplied     *prometheus.CounterVec // labeled by outcome: added, updated, removed
	CheckoutsPlaced  prometheus.Counter
	OrdersDispatched prometheus.Counter
	OrderValue       prometheus.Histogram
	SaveConflicts    prometheus.Counter
}

// NewBusinessMetrics registers the cart funnel metrics with the default
// registry.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "wellness"
	}

	return &BusinessMetrics{
		CartsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_created_total",
			Help:      "Carts implicitly created by a first add-to-cart",
		}),
		ItemsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_applied_total",
			Help:      "Line-item mutations by outcome",
		}, []string{"outcome"}),
		CheckoutsPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_placed_total",
			Help:      "Carts successfully checked out",
		}),
		OrdersDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_dispatched_total",
			Help:      "Placed orders marked as shipped",
		}),
		OrderValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value",
			Help:      "Final total of placed orders in minor units",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}),
		SaveConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_save_conflicts_total",
			Help:      "Optimistic-concurrency conflicts on cart save",
		}),
	}
}
