package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/ports"
	"storefront-insights/internal/retry"

	"github.com/rs/zerolog"
)

const oauthStateTTL = 10 * time.Minute

// StoreService manages store connections: the OAuth handshake that links
// a shop to the dashboard, plus operator upserts and store listings.
type StoreService struct {
	stores   ports.StoreRepository
	users    ports.UserRepository
	oauth    ports.OAuthClient
	states   ports.OAuthStateStore
	retryCfg retry.Config
	logger   zerolog.Logger
}

// NewStoreService creates a new store service.
func NewStoreService(
	stores ports.StoreRepository,
	users ports.UserRepository,
	oauth ports.OAuthClient,
	states ports.OAuthStateStore,
	retryCfg retry.Config,
	logger zerolog.Logger,
) *StoreService {
	return &StoreService{
		stores:   stores,
		users:    users,
		oauth:    oauth,
		states:   states,
		retryCfg: retryCfg,
		logger:   logger,
	}
}

// BeginConnect starts the OAuth handshake for the shop and returns the
// authorize URL to redirect the merchant to.
func (s *StoreService) BeginConnect(ctx context.Context, shop, returnURL string) (string, error) {
	if shop == "" {
		return "", domain.Validation("shop", "shop parameter is required.")
	}

	state, err := randomState()
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	if err := s.states.Save(ctx, &domain.OAuthState{
		State:     state,
		Shop:      shop,
		ReturnURL: returnURL,
		ExpiresAt: time.Now().UTC().Add(oauthStateTTL),
	}); err != nil {
		return "", err
	}

	s.logger.Info().Str("shop", shop).Msg("Starting store connection")
	return s.oauth.AuthorizeURL(shop, state), nil
}

// CompleteConnect finishes the handshake: it consumes the CSRF state,
// exchanges the code for a permanent access token and upserts the store.
// It returns the connected store and the return URL captured at the
// start of the flow.
func (s *StoreService) CompleteConnect(ctx context.Context, shop, code, state string) (*domain.Store, string, error) {
	if shop == "" || code == "" || state == "" {
		return nil, "", domain.Validation("callback", "shop, code and state parameters are required.")
	}

	saved, err := s.states.Take(ctx, state)
	if err != nil {
		return nil, "", err
	}
	if saved == nil || saved.Shop != shop {
		return nil, "", &domain.ForbiddenError{Message: "Invalid or expired OAuth state."}
	}

	token, err := s.oauth.ExchangeToken(ctx, shop, code)
	if err != nil {
		return nil, "", err
	}

	store := &domain.Store{Shop: shop, AccessToken: token}
	if user := domain.UserFromContext(ctx); user != nil {
		store.UserID = user.ID
	}

	outcome, err := retry.Do(ctx, s.logger, "store.upsert", s.retryCfg, func(ctx context.Context) (domain.UpsertOutcome, error) {
		return s.stores.UpsertStore(ctx, store)
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().
		Str("shop", shop).
		Str("storeId", store.ID).
		Str("outcome", outcome.String()).
		Msg("Store connected")
	return store, saved.ReturnURL, nil
}

// EnsureUser upserts the authenticated operator so stores can reference
// them. Called by the auth middleware on every verified token.
func (s *StoreService) EnsureUser(ctx context.Context, user *domain.User) error {
	_, err := retry.Do(ctx, s.logger, "user.upsert", s.retryCfg, func(ctx context.Context) (domain.UpsertOutcome, error) {
		return s.users.UpsertUser(ctx, user)
	})
	return err
}

// Stores returns the connected store as a one-element list, or an empty
// list when nothing has connected yet. Tenancy is effectively
// single-store per deployment; the dashboard only ever renders the first.
func (s *StoreService) Stores(ctx context.Context) ([]domain.StoreRef, error) {
	store, err := retry.Do(ctx, s.logger, "store.first", s.retryCfg, func(ctx context.Context) (*domain.Store, error) {
		return s.stores.FirstStore(ctx)
	})
	if err != nil {
		return nil, err
	}
	if store == nil {
		return []domain.StoreRef{}, nil
	}
	return []domain.StoreRef{store.Ref()}, nil
}

// StoreByShop resolves a shop domain to its store, or nil when the shop
// has never connected.
func (s *StoreService) StoreByShop(ctx context.Context, shop string) (*domain.Store, error) {
	return retry.Do(ctx, s.logger, "store.getByShop", s.retryCfg, func(ctx context.Context) (*domain.Store, error) {
		return s.stores.GetStoreByShop(ctx, shop)
	})
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
