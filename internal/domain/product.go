package domain

import (
	"fmt"
	"time"
)

// ProductType distinguishes the two kinds of digital goods sold in the store.
type ProductType string

const (
	ProductTypeSoftware ProductType = "software"
	ProductTypeEbook    ProductType = "ebook"
)

// Label returns the human-readable label used in generated copy.
func (t ProductType) Label() string {
	if t == ProductTypeSoftware {
		return "Software"
	}
	return "E-Book"
}

// Kind names one of the three remote collections.
type Kind string

const (
	KindProduct  Kind = "product"
	KindAd       Kind = "ad"
	KindQuestion Kind = "question"
)

// Collection returns the remote collection (table) name backing the kind.
func (k Kind) Collection() (string, error) {
	switch k {
	case KindProduct:
		return "products", nil
	case KindAd:
		return "ads", nil
	case KindQuestion:
		return "community_questions", nil
	}
	return "", fmt.Errorf("domain: unknown record kind %q", string(k))
}

// ParseKind maps a collection or kind name to a Kind. Both "product" and "products" are accepted.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "product", "products":
		return KindProduct, nil
	case "ad", "ads":
		return KindAd, nil
	case "question", "questions", "community_questions":
		return KindQuestion, nil
	}
	return "", fmt.Errorf("domain: unknown record kind %q", s)
}

// Product represents a digital product in the catalog.
// The json tags correspond to the columns of the remote products collection.
type Product struct {
	ID          string      `json:"id" validate:"required,max=64"`
	Title       string      `json:"title" validate:"required,max=255"`
	Price       float64     `json:"price" validate:"gte=0"`
	Type        ProductType `json:"type" validate:"required,oneof=software ebook"`
	Category    string      `json:"category" validate:"max=120"`
	CoverURL    string      `json:"cover_url" validate:"omitempty,url,max=2048"`
	DownloadURL string      `json:"download_url" validate:"required,url,max=2048"` // Delivery link, required for anything purchasable
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	IsFeatured  bool        `json:"is_featured,omitempty"`
}

// Ad is a promotional banner. Only active ads are shown.
type Ad struct {
	ID        string    `json:"id" validate:"required,max=64"`
	Title     string    `json:"title" validate:"required,max=255"`
	ImageURL  string    `json:"image_url" validate:"required,url,max=2048"`
	LinkURL   string    `json:"link_url,omitempty" validate:"omitempty,url,max=2048"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CommunityQuestion is a visitor question on the Q&A board.
// Questions are created unpublished and only an admin publishes or answers them.
type CommunityQuestion struct {
	ID          string    `json:"id" validate:"required,max=64"`
	UserName    string    `json:"user_name" validate:"required,max=120"`
	Question    string    `json:"question" validate:"required,max=4000"`
	Answer      string    `json:"answer,omitempty" validate:"max=8000"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record is one of *Product, *Ad or *CommunityQuestion.
type Record interface {
	RecordKind() Kind
	RecordID() string
}

func (p *Product) RecordKind() Kind { return KindProduct }
func (p *Product) RecordID() string { return p.ID }

func (a *Ad) RecordKind() Kind { return KindAd }
func (a *Ad) RecordID() string { return a.ID }

func (q *CommunityQuestion) RecordKind() Kind { return KindQuestion }
func (q *CommunityQuestion) RecordID() string { return q.ID }
