package store

import (
	"time"

	"storefront-service/internal/domain"
)

// Product type values as stored in the remote products collection.
const (
	wireTypeApp   = "app"
	wireTypeEbook = "ebook"
)

// productRow is a products row as the hosted backend stores it. The description column is
// named descricao and software products carry type "app".
type productRow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	CoverURL    string    `json:"cover_url"`
	DownloadURL string    `json:"download_url"`
	Descricao   string    `json:"descricao"`
	CreatedAt   time.Time `json:"created_at"`
	IsFeatured  bool      `json:"is_featured"`
}

func productTypeFromWire(s string) domain.ProductType {
	switch s {
	case wireTypeApp, string(domain.ProductTypeSoftware):
		return domain.ProductTypeSoftware
	case wireTypeEbook:
		return domain.ProductTypeEbook
	}
	return domain.ProductType(s)
}

func productTypeToWire(t domain.ProductType) string {
	if t == domain.ProductTypeSoftware {
		return wireTypeApp
	}
	return string(t)
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Title:       r.Title,
		Price:       r.Price,
		Type:        productTypeFromWire(r.Type),
		Category:    r.Category,
		CoverURL:    r.CoverURL,
		DownloadURL: r.DownloadURL,
		Description: r.Descricao,
		CreatedAt:   r.CreatedAt,
		IsFeatured:  r.IsFeatured,
	}
}

func productRowFrom(p *domain.Product) productRow {
	return productRow{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Type:        productTypeToWire(p.Type),
		Category:    p.Category,
		CoverURL:    p.CoverURL,
		DownloadURL: p.DownloadURL,
		Descricao:   p.Description,
		CreatedAt:   p.CreatedAt,
		IsFeatured:  p.IsFeatured,
	}
}
