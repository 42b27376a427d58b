package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart domain errors.
var (
	ErrCartNotFound    = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrInvalidQuantity = &Error{Code: EINVALID, Message: "Quantity must be zero or greater"}
	ErrCartNotOpen     = &Error{Code: EINVALID, Message: "Cart is not in a checkout-ready state"}
	ErrCartNotPlaced   = &Error{Code: EINVALID, Message: "Cart must be PLACED before it can be shipped"}
	ErrCartConflict    = &Error{Code: ECONFLICT, Message: "Cart was modified concurrently, please retry"}
)

// CartStatus is the lifecycle state of a cart.
//
// OPEN is the only mutable state. CHECKOUT and FAILED are declared for
// forward compatibility; no operation currently transitions into them.
type CartStatus string

const (
	StatusOpen     CartStatus = "OPEN"
	StatusCheckout CartStatus = "CHECKOUT"
	StatusPlaced   CartStatus = "PLACED"
	StatusFailed   CartStatus = "FAILED"
	StatusShipped  CartStatus = "SHIPPED"
)

// Valid reports whether s is a known cart status.
func (s CartStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusCheckout, StatusPlaced, StatusFailed, StatusShipped:
		return true
	}
	return false
}

// Address is the shipping/billing address captured at checkout.
// Name and PhoneNumber are copied onto the cart as the customer identity.
type Address struct {
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	PhoneNumber  string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	AddressLine1 string `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	Landmark     string `bson:"landmark,omitempty" json:"landmark,omitempty"`
	Pincode      string `bson:"pincode" json:"pincode"`
	City         string `bson:"city" json:"city"`
	State        string `bson:"state" json:"state"`
	Office       string `bson:"office" json:"office"`
}

// ProductSnapshot is the catalog data frozen into a line item at add time.
type ProductSnapshot struct {
	Ref             string // internal catalog identifier, stable across edits
	Key             string // public identifier, used for matching in the cart
	Title           string
	UnitPrice       int64 // minor units (paise)
	DiscountedPrice *int64
	PrimaryImageURL string
}

// LineItem is one product entry in a cart. All pricing fields are a
// snapshot taken when the item was added; catalog changes after that
// point do not affect it.
type LineItem struct {
	ProductRef          string `bson:"productRef" json:"productRef"`
	ProductKey          string `bson:"productKey" json:"productKey"`
	Title               string `bson:"title" json:"title"`
	UnitPrice           int64  `bson:"unitPrice" json:"unitPrice"`
	UnitDiscountedPrice *int64 `bson:"unitDiscountedPrice,omitempty" json:"unitDiscountedPrice,omitempty"`
	Quantity            int    `bson:"quantity" json:"quantity"`
	PrimaryImageURL     string `bson:"primaryImage" json:"primaryImage"`
}

// EffectiveUnitPrice is the discounted price when present, the unit price otherwise.
func (li LineItem) EffectiveUnitPrice() int64 {
	if li.UnitDiscountedPrice != nil {
		return *li.UnitDiscountedPrice
	}
	return li.UnitPrice
}

// LineTotal is unitPrice x quantity, before discount.
func (li LineItem) LineTotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// LineDiscount is the discount amount for this line.
func (li LineItem) LineDiscount() int64 {
	return (li.UnitPrice - li.EffectiveUnitPrice()) * int64(li.Quantity)
}

// Cart is the root aggregate for one shopper's order, from browsing
// through dispatch.
//
// TotalValue and TotalDiscount are derived from Items and recomputed by
// every mutation before the cart is persisted. FinalTotal and TotalItems
// are never stored; they are computed at read time.
type Cart struct {
	ID              string     `bson:"_id" json:"uuid"`
	Items           []LineItem `bson:"lineItems" json:"lineItems"`
	Status          CartStatus `bson:"status" json:"status"`
	TotalValue      int64      `bson:"totalValue" json:"totalValue"`
	TotalDiscount   int64      `bson:"totalDiscount" json:"totalDiscount"`
	CustomerName    string     `bson:"customerName,omitempty" json:"customerName,omitempty"`
	CustomerPhone   string     `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	OrderNumber     string     `bson:"orderNumber,omitempty" json:"orderNumber,omitempty"`
	ShippingAddress *Address   `bson:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
	BillingAddress  *Address   `bson:"billingAddress,omitempty" json:"billingAddress,omitempty"`
	Revision        int64      `bson:"revision" json:"-"`
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// NewCart creates an empty cart in OPEN status with a fresh identifier.
func NewCart() *Cart {
	return &Cart{
		ID:     uuid.NewString(),
		Items:  []LineItem{},
		Status: StatusOpen,
	}
}

// ApplyLineItem sets the quantity for the product identified by snap.Key.
//
// quantity is the absolute target, not a delta. Zero removes the line if
// present and is a no-op otherwise. When no matching line exists, a new
// one is appended from the snapshot. Totals are recomputed before return.
func (c *Cart) ApplyLineItem(snap ProductSnapshot, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	idx := c.itemIndex(snap.Key)
	switch {
	case idx >= 0 && quantity == 0:
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	case idx >= 0:
		c.Items[idx].Quantity = quantity
	case quantity == 0:
		// removing an absent line is a no-op
	default:
		c.Items = append(c.Items, LineItem{
			ProductRef:          snap.Ref,
			ProductKey:          snap.Key,
			Title:               snap.Title,
			UnitPrice:           snap.UnitPrice,
			UnitDiscountedPrice: snap.DiscountedPrice,
			Quantity:            quantity,
			PrimaryImageURL:     snap.PrimaryImageURL,
		})
	}

	c.recomputeTotals()
	return nil
}

// Place transitions the cart from OPEN to PLACED, attaching addresses,
// order number, and the customer identity from the shipping address.
// Billing defaults to shipping when nil.
func (c *Cart) Place(shipping Address, billing *Address, orderNumber string) error {
	if c.Status != StatusOpen {
		return ErrCartNotOpen
	}

	if billing == nil {
		b := shipping
		billing = &b
	}

	c.ShippingAddress = &shipping
	c.BillingAddress = billing
	c.Status = StatusPlaced
	c.OrderNumber = orderNumber
	c.CustomerName = shipping.Name
	c.CustomerPhone = shipping.PhoneNumber
	return nil
}

// MarkShipped transitions a PLACED cart to SHIPPED. Calling it on an
// already SHIPPED cart is a no-op; any other status is rejected.
func (c *Cart) MarkShipped() error {
	switch c.Status {
	case StatusShipped:
		return nil
	case StatusPlaced:
		c.Status = StatusShipped
		return nil
	default:
		return ErrCartNotPlaced
	}
}

// FinalTotal is the amount payable: max(0, totalValue - totalDiscount).
func (c *Cart) FinalTotal() int64 {
	if total := c.TotalValue - c.TotalDiscount; total > 0 {
		return total
	}
	return 0
}

// TotalItems is the sum of quantities across line items.
func (c *Cart) TotalItems() int {
	var n int
	for _, li := range c.Items {
		n += li.Quantity
	}
	return n
}

// Quantity returns the current quantity for productKey, 0 when absent.
// Clients use it to reconcile optimistic UI state after a mutation.
func (c *Cart) Quantity(productKey string) int {
	if idx := c.itemIndex(productKey); idx >= 0 {
		return c.Items[idx].Quantity
	}
	return 0
}

func (c *Cart) itemIndex(productKey string) int {
	for i, li := range c.Items {
		if li.ProductKey == productKey {
			return i
		}
	}
	return -1
}

func (c *Cart) recomputeTotals() {
	var value, discount int64
	for _, li := range c.Items {
		value += li.LineTotal()
		discount += li.LineDiscount()
	}
	c.TotalValue = value
	c.TotalDiscount = discount
}
