package cart

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"storefront-service/internal/config"
	"storefront-service/internal/domain"
)

const messagingBaseURL = "https://wa.me/"

// Order is the checkout hand-off. It is not persisted anywhere: the order only exists as the
// message the visitor sends to the merchant.
type Order struct {
	Items   []domain.CartItem `json:"items"`
	Total   float64           `json:"total"`
	Message string            `json:"message"`
	URL     string            `json:"url"`
}

// Checkout builds the order message and messaging deep link for the cart's current contents.
// It returns false for an empty cart. The cart is left unchanged.
func Checkout(c *Cart, profile config.Profile) (Order, bool) {
	items := c.Items()
	if len(items) == 0 {
		return Order{}, false
	}
	sum := total(items)
	msg := FormatOrderMessage(items, sum, profile)
	return Order{
		Items:   items,
		Total:   sum,
		Message: msg,
		URL:     messagingBaseURL + profile.ContactDigits() + "?text=" + encodeComponent(msg),
	}, true
}

// FormatOrderMessage renders the multi-line order summary sent to the merchant.
func FormatOrderMessage(items []domain.CartItem, sum float64, profile config.Profile) string {
	p := printer(profile.Locale)
	currency := profile.Currency

	var b strings.Builder
	fmt.Fprintf(&b, "*PEDIDO %s*\n\n", strings.ToUpper(profile.StoreName))
	b.WriteString("*ITENS:*\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- *%s* x%d (%s %s)\n", item.Title, item.Quantity, p.Sprint(number.Decimal(item.Subtotal())), currency)
	}
	fmt.Fprintf(&b, "\n*TOTAL:* %s %s", p.Sprint(number.Decimal(sum)), currency)
	if hints := paymentHints(profile.PaymentMethods); hints != "" {
		fmt.Fprintf(&b, "\n\n*MÉTODOS:* %s", hints)
	}
	return b.String()
}

// paymentHints lists methods that have a dialable number, e.g. "M-pesa: 844606198 | e-Mola: 876606198".
func paymentHints(methods []config.PaymentMethod) string {
	var parts []string
	for _, m := range methods {
		if m.Number == "" || strings.IndexFunc(m.Number, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			continue
		}
		parts = append(parts, m.Name+": "+m.Number)
	}
	return strings.Join(parts, " | ")
}

// encodeComponent percent-encodes s for a query value, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func printer(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Portuguese
	}
	return message.NewPrinter(tag)
}
