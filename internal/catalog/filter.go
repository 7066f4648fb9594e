// Package catalog filters the product mirror for the storefront grid, composes the promotional
// carousel and builds share links for a product.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"storefront-service/internal/domain"
)

// TypeFilter restricts the catalog to one product type, or to none.
type TypeFilter string

const (
	FilterAll      TypeFilter = "all"
	FilterSoftware TypeFilter = TypeFilter(domain.ProductTypeSoftware)
	FilterEbook    TypeFilter = TypeFilter(domain.ProductTypeEbook)
)

var ErrUnknownFilter = errors.New("catalog: unknown type filter")

// ParseTypeFilter reads a filter from a query value. An empty value means all types.
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch TypeFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterSoftware:
		return FilterSoftware, nil
	case FilterEbook:
		return FilterEbook, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// Matches reports whether p passes the type part of the filter.
func (f TypeFilter) Matches(p domain.Product) bool {
	return f == FilterAll || f == "" || string(p.Type) == string(f)
}

// Filter returns the products that match the type filter and whose title, category or
// description contains query, case-insensitively. Input order is preserved.
func Filter(products []domain.Product, filter TypeFilter, query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !filter.Matches(p) {
			continue
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(p domain.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Category), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// Featured returns the products flagged for the carousel, in input order.
func Featured(products []domain.Product) []domain.Product {
	var out []domain.Product
	for _, p := range products {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	return out
}
