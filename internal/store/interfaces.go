package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"storefront-service/internal/domain"
)

// Predefined errors for gateway operations
var (
	ErrNotConfigured = errors.New("store: backend not configured")
	ErrInvalidRecord = errors.New("store: invalid record")
	ErrUnknownKind   = errors.New("store: unknown record kind")
)

// Gateway is the Remote Data Gateway: row-level list/upsert/delete over the three hosted
// collections. Every List returns records newest-first (created_at descending).
type Gateway interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListAds(ctx context.Context) ([]domain.Ad, error)
	ListQuestions(ctx context.Context) ([]domain.CommunityQuestion, error)

	UpsertProduct(ctx context.Context, product *domain.Product) error
	UpsertAd(ctx context.Context, ad *domain.Ad) error
	UpsertQuestion(ctx context.Context, question *domain.CommunityQuestion) error

	// Delete removes a record by id. Deleting an id that does not exist is not an error.
	Delete(ctx context.Context, kind domain.Kind, id string) error

	Close() error
}

var validate = validator.New()

// ValidateRecord checks a tagged record against its validation rules.
// Gateways call it before any I/O so malformed rows never reach the backend.
func ValidateRecord(record any) error {
	if record == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if err := validate.Struct(record); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

func collectionFor(kind domain.Kind) (string, error) {
	table, err := kind.Collection()
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
	return table, nil
}

func checkDeleteArgs(kind domain.Kind, id string) (string, error) {
	table, err := collectionFor(kind)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	return table, nil
}
