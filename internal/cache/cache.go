// Package cache provides a read-through cache for cart lookups. The
// cart endpoint is polled by clients to reconcile quantity state, so
// reads vastly outnumber writes.
package cache

import (
	"context"
	"errors"

	"github.com/hsrini/wellness/internal/domain"
)

// CartCache caches cart aggregates by their external identifier.
type CartCache interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	Set(ctx context.Context, cartID string, cart *domain.Cart) error
	Delete(ctx context.Context, cartID string) error
}

// ErrCacheMiss is returned by Get when the cart is not cached.
var ErrCacheMiss = errors.New("cache miss")
