package store

import (
	"context"

	"storefront-service/internal/domain"
)

// Disconnected is the Gateway used when no backend credentials are configured.
// The service still starts; every call reports ErrNotConfigured.
type Disconnected struct{}

func (Disconnected) ListProducts(context.Context) ([]domain.Product, error) {
	return nil, ErrNotConfigured
}

func (Disconnected) ListAds(context.Context) ([]domain.Ad, error) { return nil, ErrNotConfigured }

func (Disconnected) ListQuestions(context.Context) ([]domain.CommunityQuestion, error) {
	return nil, ErrNotConfigured
}

func (Disconnected) UpsertProduct(context.Context, *domain.Product) error { return ErrNotConfigured }

func (Disconnected) UpsertAd(context.Context, *domain.Ad) error { return ErrNotConfigured }

func (Disconnected) UpsertQuestion(context.Context, *domain.CommunityQuestion) error {
	return ErrNotConfigured
}

func (Disconnected) Delete(context.Context, domain.Kind, string) error { return ErrNotConfigured }

func (Disconnected) Close() error { return nil }
