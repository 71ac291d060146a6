package domain

import (
	"context"
	"time"
)

// OAuthState is the short-lived CSRF state saved between the OAuth
// redirect and the callback.
type OAuthState struct {
	State     string    `json:"state"`
	Shop      string    `json:"shop"`
	ReturnURL string    `json:"return_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const userContextKey contextKey = "authenticated_user"

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil when the request
// was not authenticated (auth disabled or public route).
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}
