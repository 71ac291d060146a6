package application

import (
	"context"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/ports"
	"storefront-insights/internal/retry"

	"github.com/rs/zerolog"
)

// resolveStore finds the store a request targets: the explicit id when
// one was supplied, otherwise the first store in storage. Absence is
// reported as not-found, never treated as an empty tenant.
func resolveStore(ctx context.Context, logger zerolog.Logger, cfg retry.Config, stores ports.StoreRepository, storeID string) (*domain.Store, error) {
	if storeID != "" {
		store, err := retry.Do(ctx, logger, "store.get", cfg, func(ctx context.Context) (*domain.Store, error) {
			return stores.GetStore(ctx, storeID)
		})
		if err != nil {
			return nil, err
		}
		if store == nil {
			return nil, domain.NotFound("store", "Store not found for provided storeId.")
		}
		return store, nil
	}

	store, err := retry.Do(ctx, logger, "store.first", cfg, func(ctx context.Context) (*domain.Store, error) {
		return stores.FirstStore(ctx)
	})
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.NotFound("store", "No store connected and no stores found.")
	}
	return store, nil
}

// checkOwnership rejects access to a store owned by a different user.
// Unauthenticated requests and unowned stores pass; auth is optional at
// the deployment level.
func checkOwnership(ctx context.Context, store *domain.Store) error {
	user := domain.UserFromContext(ctx)
	if user == nil || store.UserID == "" {
		return nil
	}
	if store.UserID != user.ID {
		return &domain.ForbiddenError{Message: "Store does not belong to the authenticated user."}
	}
	return nil
}
