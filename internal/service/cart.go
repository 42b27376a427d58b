package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hsrini/wellness/internal/cache"
	"github.com/hsrini/wellness/internal/domain"
	"github.com/hsrini/wellness/internal/events"
	"github.com/hsrini/wellness/internal/telemetry"
)

// ListPageSize is the fixed page size for administrative cart listings.
const ListPageSize = 10

// CartService provides business logic for the cart lifecycle.
type CartService interface {
	// AddToCart resolves a product snapshot and applies the target
	// quantity to the cart, creating the cart when cartID is empty.
	// An explicit cartID must resolve to an OPEN cart.
	AddToCart(ctx context.Context, cartID, productKey string, quantity int) (*domain.Cart, error)

	// GetCart retrieves a cart by its external identifier. Read-only.
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)

	// Checkout transitions an OPEN cart to PLACED, attaching addresses
	// and a freshly minted order number. Not idempotent.
	Checkout(ctx context.Context, cartID string, shipping domain.Address, billing *domain.Address) (*domain.Cart, error)

	// ListCarts returns one page of carts matching the filters,
	// newest first.
	ListCarts(ctx context.Context, params ListCartsParams) (*CartPage, error)

	// Dispatch transitions a PLACED cart to SHIPPED. Dispatching an
	// already SHIPPED cart succeeds without modification.
	Dispatch(ctx context.Context, cartID string) (*domain.Cart, error)
}

// ListCartsParams are the optional, conjunctive listing filters.
type ListCartsParams struct {
	Status      domain.CartStatus
	StartDate   *time.Time
	EndDate     *time.Time // extended to end-of-day
	Name        string
	PhoneNumber string
	Page        int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	Pages    int   `json:"pages"`
}

// CartPage is one page of carts plus pagination metadata.
type CartPage struct {
	Carts      []domain.Cart
	Pagination Pagination
}

type cartService struct {
	store     domain.CartStore
	catalog   domain.ProductCatalog
	sequence  domain.SequenceCounter
	cache     cache.CartCache
	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	logger    *slog.Logger
	sfg       singleflight.Group
}

// NewCartService creates a CartService. metrics may be nil.
func NewCartService(
	store domain.CartStore,
	catalog domain.ProductCatalog,
	sequence domain.SequenceCounter,
	cartCache cache.CartCache,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) CartService {
	return &cartService{
		store:     store,
		catalog:   catalog,
		sequence:  sequence,
		cache:     cartCache,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *cartService) AddToCart(ctx context.Context, cartID, productKey string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	// The snapshot is read once, at the start of the mutation. A new
	// line always carries prices from this call, even if the same
	// product already sits in another cart.
	snap, err := s.catalog.FindActiveByKey(ctx, productKey)
	if err != nil {
		return nil, err
	}

	var cart *domain.Cart
	created := false

	if cartID == "" {
		cart = domain.NewCart()
		created = true
	} else {
		cart, err = s.store.FindByID(ctx, cartID)
		if err != nil {
			return nil, err
		}
		// a placed or shipped cart is no longer addressable for
		// line-item mutation
		if cart.Status != domain.StatusOpen {
			return nil, domain.ErrCartNotFound
		}
	}

	previous := cart.Quantity(productKey)
	if err := cart.ApplyLineItem(*snap, quantity); err != nil {
		return nil, err
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		if created {
			s.metrics.CartsCreated.Inc()
		}
		s.metrics.ItemsApplied.WithLabelValues(applyOutcome(previous, quantity)).Inc()
	}

	s.logger.Debug("line item applied",
		"cart_id", cart.ID,
		"product_key", productKey,
		"quantity", quantity,
		"total_value", cart.TotalValue,
	)

	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	// singleflight collapses concurrent polls for the same cart into a
	// single store round trip on cache miss
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, cartID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache read failed", "cart_id", cartID, "error", err)
		}

		cart, err = s.store.FindByID(ctx, cartID)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, cartID, cart); err != nil {
			s.logger.Warn("cart cache write failed", "cart_id", cartID, "error", err)
		}

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *cartService) Checkout(ctx context.Context, cartID string, shipping domain.Address, billing *domain.Address) (*domain.Cart, error) {
	const op = "cart.checkout"

	cart, err := s.store.FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	// validate before touching the counter so invalid-state calls
	// never burn an order number
	if cart.Status != domain.StatusOpen {
		return nil, domain.ErrCartNotOpen
	}

	next, err := s.sequence.Next(ctx, domain.OrderIDSequence)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to allocate order number")
	}
	orderNumber := fmt.Sprintf("ORD-%d", next)

	if err := cart.Place(shipping, billing, orderNumber); err != nil {
		return nil, err
	}

	// the counter increment and this save are separate writes: a save
	// failure here leaves a gap in order numbers, which we tolerate
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CheckoutsPlaced.Inc()
		s.metrics.OrderValue.Observe(float64(cart.FinalTotal()))
	}

	if err := s.publisher.OrderPlaced(ctx, cart); err != nil {
		s.logger.Warn("order placed event dropped", "cart_id", cart.ID, "error", err)
	}

	s.logger.Info("order placed",
		"cart_id", cart.ID,
		"order_number", cart.OrderNumber,
		"final_total", cart.FinalTotal(),
	)

	return cart, nil
}

func (s *cartService) ListCarts(ctx context.Context, params ListCartsParams) (*CartPage, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, domain.Errorf(domain.EINVALID, "cart.list", "unknown status: %s", params.Status)
	}

	filter := domain.CartFilter{
		Status:      params.Status,
		CreatedFrom: params.StartDate,
		Name:        params.Name,
		PhoneNumber: params.PhoneNumber,
	}
	if params.EndDate != nil {
		end := endOfDay(*params.EndDate)
		filter.CreatedTo = &end
	}

	page := params.Page
	if page < 1 {
		page = 1
	}

	carts, total, err := s.store.FindByFilter(ctx, filter, page, ListPageSize)
	if err != nil {
		return nil, err
	}

	return &CartPage{
		Carts: carts,
		Pagination: Pagination{
			Page:     page,
			PageSize: ListPageSize,
			Total:    total,
			Pages:    int((total + ListPageSize - 1) / ListPageSize),
		},
	}, nil
}

func (s *cartService) Dispatch(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.store.FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	// already shipped: idempotent success, no write
	if cart.Status == domain.StatusShipped {
		return cart, nil
	}

	if err := cart.MarkShipped(); err != nil {
		return nil, err
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersDispatched.Inc()
	}

	if err := s.publisher.OrderShipped(ctx, cart); err != nil {
		s.logger.Warn("order shipped event dropped", "cart_id", cart.ID, "error", err)
	}

	s.logger.Info("order dispatched", "cart_id", cart.ID, "order_number", cart.OrderNumber)

	return cart, nil
}

// save persists the cart and drops any cached copy so pollers never see
// a stale aggregate.
func (s *cartService) save(ctx context.Context, cart *domain.Cart) error {
	if err := s.store.Save(ctx, cart); err != nil {
		if errors.Is(err, domain.ErrCartConflict) && s.metrics != nil {
			s.metrics.SaveConflicts.Inc()
		}
		return err
	}

	if err := s.cache.Delete(ctx, cart.ID); err != nil {
		s.logger.Warn("cart cache invalidation failed", "cart_id", cart.ID, "error", err)
	}

	return nil
}

func applyOutcome(previous, requested int) string {
	switch {
	case requested == 0:
		return "removed"
	case previous == 0:
		return "added"
	default:
		return "updated"
	}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
