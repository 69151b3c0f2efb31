package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront-cart/internal/domain"
	"github.com/utafrali/storefront-cart/internal/notify"
	"github.com/utafrali/storefront-cart/pkg/httputil"
	"github.com/utafrali/storefront-cart/pkg/validator"
)

// CartService is the subset of store.CartStore the handlers use.
type CartService interface {
	Cart() *domain.Cart
	AddProduct(ctx context.Context, productID int) error
	RemoveProduct(ctx context.Context, productID int) error
	UpdateProductAmount(ctx context.Context, productID, amount int) error
	Clear(ctx context.Context) error
}

// NotificationSource returns recent notifications, newest first.
type NotificationSource interface {
	Recent() []notify.Notification
}

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	cart          CartService
	notifications NotificationSource
	logger        *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler. notifications may be nil.
func NewCartHandler(cart CartService, notifications NotificationSource, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		cart:          cart,
		notifications: notifications,
		logger:        logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

// UpdateAmountRequest is the JSON request body for setting a product's amount.
// Amounts of zero or less are accepted and ignored.
type UpdateAmountRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

// --- Response DTOs ---

type cartResponse struct {
	Items     []domain.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

func newCartResponse(c *domain.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return cartResponse{
		Items:     items,
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(h.cart.Cart())})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.cart.AddProduct(r.Context(), req.ProductID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(h.cart.Cart())})
}

// UpdateItemAmount handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.cart.UpdateProductAmount(r.Context(), productID, *req.Amount); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(h.cart.Cart())})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	if err := h.cart.RemoveProduct(r.Context(), productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(h.cart.Cart())})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListNotifications handles GET /api/v1/cart/notifications
func (h *CartHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	list := []notify.Notification{}
	if h.notifications != nil {
		if recent := h.notifications.Recent(); recent != nil {
			list = recent
		}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: list})
}
