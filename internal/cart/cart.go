// Package cart holds the per-session shopping cart and builds the checkout hand-off message.
// Carts live only in memory and are never written to the remote backend.
package cart

import (
	"sync"

	"storefront-service/internal/domain"
)

// Cart is an ordered list of line items, one per distinct product id.
type Cart struct {
	mu    sync.Mutex
	items []domain.CartItem
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts product in the cart: a repeat add increments the quantity, a first add appends a
// line with quantity 1. Adding always opens the cart panel, so it reports true.
func (c *Cart) Add(product domain.Product) (panelOpen bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == product.ID {
			c.items[i].Quantity++
			return true
		}
	}
	c.items = append(c.items, domain.CartItem{Product: product, Quantity: 1})
	return true
}

// Remove drops the whole line for id. Unknown ids are ignored.
func (c *Cart) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	// zero the tail so removed products can be collected
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = domain.CartItem{}
	}
	c.items = kept
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total is the sum of price times quantity over all lines; 0 for an empty cart.
func (c *Cart) Total() float64 {
	return total(c.Items())
}

// Count is the total number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items() {
		n += item.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

func total(items []domain.CartItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Subtotal()
	}
	return sum
}
