// Package redisstore holds the short-lived shared state that does not
// belong in the mirror database: OAuth CSRF state and sync run status.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-insights/internal/domain"
	"storefront-insights/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	oauthStateKeyPrefix = "oauth:state:"
	syncStatusKeyPrefix = "sync:status:"

	oauthStateTTL = 10 * time.Minute
	syncStatusTTL = 24 * time.Hour
)

// OAuthStateStore persists OAuth state in redis with a short TTL.
type OAuthStateStore struct {
	client *redis.Client
}

// NewOAuthStateStore creates a redis-backed OAuth state store.
func NewOAuthStateStore(client *redis.Client) ports.OAuthStateStore {
	return &OAuthStateStore{client: client}
}

// Save stores the state under its CSRF token.
func (s *OAuthStateStore) Save(ctx context.Context, state *domain.OAuthState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, oauthStateKeyPrefix+state.State, payload, oauthStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// Take returns and deletes the state in one step. Unknown or expired
// state returns nil; a replayed callback therefore fails closed.
func (s *OAuthStateStore) Take(ctx context.Context, state string) (*domain.OAuthState, error) {
	key := oauthStateKeyPrefix + state

	payload, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take oauth state: %w", err)
	}

	var saved domain.OAuthState
	if err := json.Unmarshal([]byte(payload), &saved); err != nil {
		return nil, fmt.Errorf("failed to decode oauth state: %w", err)
	}
	return &saved, nil
}

// SyncStatusStore keeps the latest sync run per store for the UI's poll
// loop. Entries expire after a day; the status is a convenience, not a
// system of record.
type SyncStatusStore struct {
	client *redis.Client
}

// NewSyncStatusStore creates a redis-backed sync status store.
func NewSyncStatusStore(client *redis.Client) ports.SyncStatusStore {
	return &SyncStatusStore{client: client}
}

// Set overwrites the store's current run status.
func (s *SyncStatusStore) Set(ctx context.Context, status *domain.SyncStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode sync status: %w", err)
	}
	if err := s.client.Set(ctx, syncStatusKeyPrefix+status.StoreID, payload, syncStatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save sync status: %w", err)
	}
	return nil
}

// Get returns the store's latest run status, or nil when none exists.
func (s *SyncStatusStore) Get(ctx context.Context, storeID string) (*domain.SyncStatus, error) {
	payload, err := s.client.Get(ctx, syncStatusKeyPrefix+storeID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	var status domain.SyncStatus
	if err := json.Unmarshal([]byte(payload), &status); err != nil {
		return nil, fmt.Errorf("failed to decode sync status: %w", err)
	}
	return &status, nil
}
