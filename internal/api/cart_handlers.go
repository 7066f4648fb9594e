package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront-service/internal/cart"
	"storefront-service/internal/domain"
	"storefront-service/internal/observability"
)

// CartResponse is the cart panel contents.
type CartResponse struct {
	Items     []domain.CartItem `json:"items"`
	Total     float64           `json:"total"`
	Count     int               `json:"count"`
	Currency  string            `json:"currency"`
	PanelOpen bool              `json:"panel_open,omitempty"`
}

// CartItemInput defines the expected input for adding a product to the cart.
type CartItemInput struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

func (h *HTTPHandler) cartResponse(c *cart.Cart, panelOpen bool) CartResponse {
	items := c.Items()
	var total float64
	count := 0
	for _, item := range items {
		total += item.Subtotal()
		count += item.Quantity
	}
	return CartResponse{Items: items, Total: total, Count: count, Currency: h.profile.Currency, PanelOpen: panelOpen}
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, r, http.StatusOK, h.cartResponse(h.session(w, r), false))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var input CartItemInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	product, ok := h.state.Product(input.ProductID)
	if !ok {
		respondWithError(w, r, http.StatusNotFound, "product not found")
		return
	}
	c := h.session(w, r)
	panelOpen := c.Add(product)
	respondWithJSON(w, r, http.StatusOK, h.cartResponse(c, panelOpen))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	c.Remove(chi.URLParam(r, "productId"))
	respondWithJSON(w, r, http.StatusOK, h.cartResponse(c, false))
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	order, ok := cart.Checkout(c, h.profile)
	if !ok {
		respondWithError(w, r, http.StatusConflict, "cart is empty")
		return
	}
	observability.FromContext(r.Context()).Info("checkout link issued",
		zap.Int("lines", len(order.Items)),
		zap.Float64("total", order.Total),
	)
	respondWithJSON(w, r, http.StatusOK, order)
}
