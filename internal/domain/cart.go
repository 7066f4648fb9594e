package domain

// CartItem is a line item: a product and how many of it the visitor selected.
// Quantity is always at least 1; a line is removed instead of dropping to zero.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal is price times quantity for the line.
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// SiteStats holds the dashboard counters.
// Only Inventory is derived (count of loaded products); the rest are display placeholders.
type SiteStats struct {
	Visitors  int     `json:"visitors"`
	Sales     int     `json:"sales"`
	Inventory int     `json:"inventory"`
	Revenue   float64 `json:"revenue"`
}
