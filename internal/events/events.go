// Package events publishes order lifecycle notifications for downstream
// consumers (fulfillment tooling, notifications). Publishing is
// best-effort: a lost event never fails the request that produced it.
package events

import (
	"context"
	"time"

	"github.com/hsrini/wellness/internal/domain"
)

// Subjects for order lifecycle events.
const (
	SubjectOrderPlaced  = "orders.placed"
	SubjectOrderShipped = "orders.shipped"
)

// OrderEvent is the wire payload for order lifecycle events.
type OrderEvent struct {
	CartID      string    `json:"cartUuid"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	FinalTotal  int64     `json:"finalTotal"`
	ItemCount   int       `json:"itemCount"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher emits order lifecycle events.
type Publisher interface {
	OrderPlaced(ctx context.Context, cart *domain.Cart) error
	OrderShipped(ctx context.Context, cart *domain.Cart) error
}

func newOrderEvent(cart *domain.Cart) OrderEvent {
	return OrderEvent{
		CartID:      cart.ID,
		OrderNumber: cart.OrderNumber,
		Status:      string(cart.Status),
		FinalTotal:  cart.FinalTotal(),
		ItemCount:   cart.TotalItems(),
		OccurredAt:  time.Now().UTC(),
	}
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) OrderPlaced(context.Context, *domain.Cart) error  { return nil }
func (NoopPublisher) OrderShipped(context.Context, *domain.Cart) error { return nil }
