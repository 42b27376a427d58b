package service

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsrini/wellness/internal/cache"
	"github.com/hsrini/wellness/internal/domain"
)

// ============================================================================
// Mock Implementations
// ============================================================================

type mockStore struct {
	carts      map[string]*domain.Cart
	saveErr    error
	findCalls  int
	saveCalls  int
	lastFilter domain.CartFilter
	lastPage   int
	listCarts  []domain.Cart
	listTotal  int64
}

func newMockStore() *mockStore {
	return &mockStore{carts: make(map[string]*domain.Cart)}
}

func (m *mockStore) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	m.findCalls++
	cart, ok := m.carts[id]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	copied := *cart
	return &copied, nil
}

func (m *mockStore) FindByFilter(ctx context.Context, filter domain.CartFilter, page, pageSize int) ([]domain.Cart, int64, error) {
	m.lastFilter = filter
	m.lastPage = page
	return m.listCarts, m.listTotal, nil
}

func (m *mockStore) Save(ctx context.Context, cart *domain.Cart) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = time.Now().UTC()
	}
	cart.UpdatedAt = time.Now().UTC()
	cart.Revision++
	copied := *cart
	m.carts[cart.ID] = &copied
	return nil
}

type mockCatalog struct {
	products map[string]domain.ProductSnapshot
}

func (m *mockCatalog) FindActiveByKey(ctx context.Context, key string) (*domain.ProductSnapshot, error) {
	snap, ok := m.products[key]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &snap, nil
}

type mockSequence struct {
	value int64
	calls int
}

func (m *mockSequence) Next(ctx context.Context, name string) (int64, error) {
	m.calls++
	m.value++
	return m.value, nil
}

type mockCache struct {
	entries map[string]*domain.Cart
	sets    int
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]*domain.Cart)}
}

func (m *mockCache) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, ok := m.entries[cartID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (m *mockCache) Set(ctx context.Context, cartID string, cart *domain.Cart) error {
	m.sets++
	copied := *cart
	m.entries[cartID] = &copied
	return nil
}

func (m *mockCache) Delete(ctx context.Context, cartID string) error {
	m.deletes++
	delete(m.entries, cartID)
	return nil
}

type mockPublisher struct {
	placed  []string
	shipped []string
}

func (m *mockPublisher) OrderPlaced(ctx context.Context, cart *domain.Cart) error {
	m.placed = append(m.placed, cart.ID)
	return nil
}

func (m *mockPublisher) OrderShipped(ctx context.Context, cart *domain.Cart) error {
	m.shipped = append(m.shipped, cart.ID)
	return nil
}

type fixture struct {
	store     *mockStore
	catalog   *mockCatalog
	sequence  *mockSequence
	cache     *mockCache
	publisher *mockPublisher
	service   CartService
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMockStore(),
		sequence: &mockSequence{},
		cache:    newMockCache(),
		catalog: &mockCatalog{products: map[string]domain.ProductSnapshot{
			"sku-1": {Ref: "p1", Key: "sku-1", Title: "Ashwagandha", UnitPrice: 200, PrimaryImageURL: "/img/1.jpg"},
			"sku-2": {Ref: "p2", Key: "sku-2", Title: "Triphala", UnitPrice: 150, DiscountedPrice: ptr(int64(100)), PrimaryImageURL: "/img/2.jpg"},
		}},
		publisher: &mockPublisher{},
	}
	f.service = NewCartService(f.store, f.catalog, f.sequence, f.cache, f.publisher, nil, slog.New(slog.DiscardHandler))
	return f
}

func ptr[T any](v T) *T { return &v }

func validAddress() domain.Address {
	return domain.Address{
		Name:         "John Doe",
		PhoneNumber:  "9876543210",
		AddressLine1: "42 MG Road",
		Pincode:      "560001",
		City:         "Bengaluru",
		State:        "Karnataka",
		Office:       "Bengaluru GPO",
	}
}

// ============================================================================
// AddToCart
// ============================================================================

func TestAddToCart_ImplicitCreation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)

	assert.NotEmpty(t, cart.ID)
	assert.Equal(t, domain.StatusOpen, cart.Status)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(200), cart.TotalValue)
	assert.Equal(t, 1, f.store.saveCalls)
}

func TestAddToCart_ProductNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service.AddToCart(context.Background(), "", "sku-missing", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Zero(t, f.store.saveCalls)
}

func TestAddToCart_UnknownCartID(t *testing.T) {
	f := newFixture()

	_, err := f.service.AddToCart(context.Background(), "no-such-cart", "sku-1", 1)
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestAddToCart_PlacedCartRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)
	_, err = f.service.Checkout(ctx, cart.ID, validAddress(), nil)
	require.NoError(t, err)

	_, err = f.service.AddToCart(ctx, cart.ID, "sku-1", 2)
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestAddToCart_NegativeQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.service.AddToCart(context.Background(), "", "sku-1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAddToCart_InvalidatesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)

	// warm the cache via a read, then mutate
	_, err = f.service.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.Contains(t, f.cache.entries, cart.ID)

	_, err = f.service.AddToCart(ctx, cart.ID, "sku-1", 3)
	require.NoError(t, err)
	assert.NotContains(t, f.cache.entries, cart.ID)
}

// ============================================================================
// GetCart
// ============================================================================

func TestGetCart_ReadThroughCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.service.AddToCart(ctx, "", "sku-1", 2)
	require.NoError(t, err)
	f.store.findCalls = 0

	first, err := f.service.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.findCalls)
	assert.Equal(t, 1, f.cache.sets)

	second, err := f.service.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.findCalls, "second read should be served from cache")
	assert.Equal(t, first.TotalValue, second.TotalValue)
}

func TestGetCart_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service.GetCart(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

// ============================================================================
// Checkout
// ============================================================================

func TestCheckout_PlacesCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)

	placed, err := f.service.Checkout(ctx, cart.ID, validAddress(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPlaced, placed.Status)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+$`), placed.OrderNumber)
	assert.Equal(t, "John Doe", placed.CustomerName)
	assert.Equal(t, "9876543210", placed.CustomerPhone)
	require.NotNil(t, placed.BillingAddress)
	assert.Equal(t, *placed.ShippingAddress, *placed.BillingAddress)
	assert.Equal(t, []string{cart.ID}, f.publisher.placed)
}

func TestCheckout_ExplicitBillingAddress(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)

	billing := validAddress()
	billing.AddressLine1 = "9 Residency Road"

	placed, err := f.service.Checkout(ctx, cart.ID, validAddress(), &billing)
	require.NoError(t, err)
	assert.Equal(t, "9 Residency Road", placed.BillingAddress.AddressLine1)
	assert.Equal(t, "42 MG Road", placed.ShippingAddress.AddressLine1)
}

func TestCheckout_NotIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)

	_, err = f.service.Checkout(ctx, cart.ID, validAddress(), nil)
	require.NoError(t, err)

	_, err = f.service.Checkout(ctx, cart.ID, validAddress(), nil)
	assert.ErrorIs(t, err, domain.ErrCartNotOpen)
	assert.Equal(t, 1, f.sequence.calls, "invalid-state checkout must not burn an order number")
}

func TestCheckout_SequentialOrderNumbers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)
	second, err := f.service.AddToCart(ctx, "", "sku-2", 1)
	require.NoError(t, err)

	a, err := f.service.Checkout(ctx, first.ID, validAddress(), nil)
	require.NoError(t, err)
	b, err := f.service.Checkout(ctx, second.ID, validAddress(), nil)
	require.NoError(t, err)

	assert.Equal(t, "ORD-1", a.OrderNumber)
	assert.Equal(t, "ORD-2", b.OrderNumber)
}

// ============================================================================
// ListCarts
// ============================================================================

func TestListCarts_FilterTranslation(t *testing.T) {
	f := newFixture()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	_, err := f.service.ListCarts(context.Background(), ListCartsParams{
		Status:      domain.StatusPlaced,
		StartDate:   &start,
		EndDate:     &end,
		Name:        "john",
		PhoneNumber: "98765",
		Page:        2,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPlaced, f.store.lastFilter.Status)
	assert.Equal(t, start, *f.store.lastFilter.CreatedFrom)
	assert.Equal(t, "john", f.store.lastFilter.Name)
	assert.Equal(t, "98765", f.store.lastFilter.PhoneNumber)
	assert.Equal(t, 2, f.store.lastPage)

	// end date must cover the whole final day
	to := *f.store.lastFilter.CreatedTo
	assert.Equal(t, 23, to.Hour())
	assert.Equal(t, 59, to.Minute())
	assert.Equal(t, end.Day(), to.Day())
}

func TestListCarts_Pagination(t *testing.T) {
	f := newFixture()
	f.store.listTotal = 25

	page, err := f.service.ListCarts(context.Background(), ListCartsParams{Page: 0})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Pagination.Page, "page defaults to 1")
	assert.Equal(t, ListPageSize, page.Pagination.PageSize)
	assert.Equal(t, int64(25), page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.Pages)
}

func TestListCarts_UnknownStatus(t *testing.T) {
	f := newFixture()

	_, err := f.service.ListCarts(context.Background(), ListCartsParams{Status: "BROWSING"})
	assert.True(t, domain.IsCode(err, domain.EINVALID))
}

// ============================================================================
// Dispatch
// ============================================================================

func TestDispatch_Transitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)
	_, err = f.service.Checkout(ctx, cart.ID, validAddress(), nil)
	require.NoError(t, err)

	shipped, err := f.service.Dispatch(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, shipped.Status)
	assert.Equal(t, []string{cart.ID}, f.publisher.shipped)

	// idempotent: second dispatch succeeds without another write
	saves := f.store.saveCalls
	again, err := f.service.Dispatch(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, again.Status)
	assert.Equal(t, saves, f.store.saveCalls)
	assert.Len(t, f.publisher.shipped, 1)
}

func TestDispatch_RequiresPlaced(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)

	_, err = f.service.Dispatch(ctx, cart.ID)
	assert.ErrorIs(t, err, domain.ErrCartNotPlaced)
}

// ============================================================================
// Full lifecycle
// ============================================================================

func TestCartLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// (a) first add creates the cart
	cart, err := f.service.AddToCart(ctx, "", "sku-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), cart.TotalValue)
	assert.Equal(t, int64(0), cart.TotalDiscount)
	assert.Equal(t, int64(200), cart.FinalTotal())

	// (b) second product with a discount
	cart, err = f.service.AddToCart(ctx, cart.ID, "sku-2", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(500), cart.TotalValue)
	assert.Equal(t, int64(100), cart.TotalDiscount)
	assert.Equal(t, int64(400), cart.FinalTotal())
	assert.Equal(t, 3, cart.TotalItems())

	// (c) zero quantity removes the first line
	cart, err = f.service.AddToCart(ctx, cart.ID, "sku-1", 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "sku-2", cart.Items[0].ProductKey)
	assert.Equal(t, int64(300), cart.TotalValue)
	assert.Equal(t, int64(100), cart.TotalDiscount)
	assert.Equal(t, int64(200), cart.FinalTotal())

	// (d) checkout
	cart, err = f.service.Checkout(ctx, cart.ID, validAddress(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaced, cart.Status)
	assert.NotEmpty(t, cart.OrderNumber)

	// (e) dispatch, twice
	cart, err = f.service.Dispatch(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, cart.Status)

	cart, err = f.service.Dispatch(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, cart.Status)
}
