package domain

import (
	"context"
	"time"
)

// CartFilter restricts administrative cart listings. All fields are
// optional and combine with AND semantics. Name and PhoneNumber match
// case-insensitive substrings.
type CartFilter struct {
	Status      CartStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Name        string
	PhoneNumber string
}

// CartStore is the persistence boundary for cart aggregates.
type CartStore interface {
	// FindByID returns the cart with the given external identifier,
	// or ErrCartNotFound.
	FindByID(ctx context.Context, id string) (*Cart, error)

	// FindByFilter returns one page of carts matching filter, newest
	// first, plus the total match count.
	FindByFilter(ctx context.Context, filter CartFilter, page, pageSize int) ([]Cart, int64, error)

	// Save upserts the cart: insert when new, full replace otherwise.
	// The cart's revision is checked against the stored document;
	// a stale revision fails with ErrCartConflict.
	Save(ctx context.Context, cart *Cart) error
}

// ProductCatalog resolves active catalog entries for snapshotting.
type ProductCatalog interface {
	// FindActiveByKey returns the snapshot for an active product, or
	// ErrProductNotFound when the key is unknown or inactive.
	FindActiveByKey(ctx context.Context, key string) (*ProductSnapshot, error)
}

// SequenceCounter mints monotonically increasing integers from a named,
// durably backed counter. Next must be atomic across concurrent callers.
type SequenceCounter interface {
	Next(ctx context.Context, name string) (int64, error)
}

// OrderIDSequence is the counter name backing order numbers.
const OrderIDSequence = "orderId"
