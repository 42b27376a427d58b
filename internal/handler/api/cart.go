package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hsrini/wellness/internal/domain"
	"github.com/hsrini/wellness/internal/service"
)

// validate is shared across handlers; a Validate instance caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

// newValidator builds a validator that reports field names by their json
// tag, so validation errors use the same names clients sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CartHandler serves the public cart API and the admin order endpoints.
type CartHandler struct {
	carts  service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts service.CartService, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{carts: carts, logger: logger}
}

// ============================================================================
// Request / Response Types
// ============================================================================

type addToCartRequest struct {
	UUID      string `json:"uuid"`
	ProductID string `json:"productId" validate:"required"`
	// pointer so "absent" (default 1) and explicit 0 (remove) are distinct
	Quantity *int `json:"quantity" validate:"omitempty,min=0,max=100"`
}

type addressRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	PhoneNumber  string `json:"phoneNumber" validate:"required,min=10,max=15"`
	AddressLine1 string `json:"addressLine1" validate:"required,max=200"`
	AddressLine2 string `json:"addressLine2" validate:"max=200"`
	Landmark     string `json:"landmark" validate:"max=200"`
	Pincode      string `json:"pincode" validate:"required,len=6,numeric"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	Office       string `json:"office" validate:"required,max=200"`
}

type checkoutRequest struct {
	ShippingAddress *addressRequest `json:"shippingAddress" validate:"required"`
	BillingAddress  *addressRequest `json:"billingAddress" validate:"omitempty"`
}

// cartView is the wire shape of a cart. The derived totals are computed
// here rather than stored.
type cartView struct {
	UUID            string            `json:"uuid"`
	LineItems       []domain.LineItem `json:"lineItems"`
	Status          domain.CartStatus `json:"status"`
	TotalValue      int64             `json:"totalValue"`
	TotalDiscount   int64             `json:"totalDiscount"`
	FinalTotal      int64             `json:"finalTotal"`
	TotalItems      int               `json:"totalItems"`
	CustomerName    string            `json:"customerName,omitempty"`
	CustomerPhone   string            `json:"customerPhone,omitempty"`
	OrderNumber     string            `json:"orderNumber,omitempty"`
	ShippingAddress *domain.Address   `json:"shippingAddress,omitempty"`
	BillingAddress  *domain.Address   `json:"billingAddress,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func newCartView(cart *domain.Cart) cartView {
	return cartView{
		UUID:            cart.ID,
		LineItems:       cart.Items,
		Status:          cart.Status,
		TotalValue:      cart.TotalValue,
		TotalDiscount:   cart.TotalDiscount,
		FinalTotal:      cart.FinalTotal(),
		TotalItems:      cart.TotalItems(),
		CustomerName:    cart.CustomerName,
		CustomerPhone:   cart.CustomerPhone,
		OrderNumber:     cart.OrderNumber,
		ShippingAddress: cart.ShippingAddress,
		BillingAddress:  cart.BillingAddress,
		CreatedAt:       cart.CreatedAt,
		UpdatedAt:       cart.UpdatedAt,
	}
}

type cartListView struct {
	Carts      []cartView         `json:"carts"`
	Pagination service.Pagination `json:"pagination"`
}

// ============================================================================
// Handlers
// ============================================================================

// Add handles POST /api/cart/add.
// An empty uuid creates a new cart; quantity defaults to 1 when omitted.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := validateStruct("cart.add", req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.carts.AddToCart(r.Context(), req.UUID, req.ProductID, quantity)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, "Product added to cart", newCartView(cart))
}

// Get handles GET /api/cart/{uuid}.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), r.PathValue("uuid"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, "Cart retrieved", newCartView(cart))
}

// Checkout handles POST /api/cart/checkout/{uuid}.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := validateStruct("cart.checkout", req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	shipping := req.ShippingAddress.toDomain()
	var billing *domain.Address
	if req.BillingAddress != nil {
		b := req.BillingAddress.toDomain()
		billing = &b
	}

	cart, err := h.carts.Checkout(r.Context(), r.PathValue("uuid"), shipping, billing)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, "Order placed", newCartView(cart))
}

// List handles GET /api/cart (admin).
//
// Query parameters: status, startDate, endDate (yyyy-mm-dd), name,
// phoneNumber, pageNumber.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	page, err := h.carts.ListCarts(r.Context(), params)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	views := make([]cartView, 0, len(page.Carts))
	for i := range page.Carts {
		views = append(views, newCartView(&page.Carts[i]))
	}

	respondJSON(w, http.StatusOK, "Carts retrieved", cartListView{
		Carts:      views,
		Pagination: page.Pagination,
	})
}

// Dispatch handles GET /api/cart/{uuid}/dispatch (admin).
func (h *CartHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Dispatch(r.Context(), r.PathValue("uuid"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, "Order dispatched", newCartView(cart))
}

// ============================================================================
// Helpers
// ============================================================================

func (a *addressRequest) toDomain() domain.Address {
	return domain.Address{
		Name:         a.Name,
		PhoneNumber:  a.PhoneNumber,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		Landmark:     a.Landmark,
		Pincode:      a.Pincode,
		City:         a.City,
		State:        a.State,
		Office:       a.Office,
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Errorf(domain.EINVALID, "api.decode", "Invalid request body")
	}
	return nil
}

// validateStruct runs validator tags and converts failures into the
// field-level error shape the API returns.
func validateStruct(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, op, "validation failed")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonFieldName(fe)] = validationMessage(fe)
	}
	return &domain.ValidationError{Op: op, Fields: fields}
}

// jsonFieldName strips the root struct name off validator's namespace,
// leaving the JSON path clients sent, e.g. "shippingAddress.pincode".
// Namespace segments already carry json names via RegisterTagNameFunc.
func jsonFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Must be at least " + fe.Param()
	case "max":
		return "Must be at most " + fe.Param()
	case "len":
		return "Must be exactly " + fe.Param() + " characters"
	case "numeric":
		return "Must contain only digits"
	default:
		return "Invalid value"
	}
}

func parseListParams(r *http.Request) (service.ListCartsParams, error) {
	q := r.URL.Query()

	params := service.ListCartsParams{
		Status:      domain.CartStatus(q.Get("status")),
		Name:        q.Get("name"),
		PhoneNumber: q.Get("phoneNumber"),
	}

	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return params, domain.NewValidationError("cart.list", "startDate", "Must be a yyyy-mm-dd date")
		}
		params.StartDate = &t
	}

	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return params, domain.NewValidationError("cart.list", "endDate", "Must be a yyyy-mm-dd date")
		}
		params.EndDate = &t
	}

	if v := q.Get("pageNumber"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return params, domain.NewValidationError("cart.list", "pageNumber", "Must be a positive integer")
		}
		params.Page = n
	}

	return params, nil
}
