// Package middleware holds HTTP middleware shared across route groups.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"storefront-insights/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// UserEnsurer upserts the authenticated operator after a token verifies.
type UserEnsurer func(ctx context.Context, user *domain.User) error

type authClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Auth returns HS256 bearer-token middleware. With an empty secret it is
// a pass-through: deployments without an identity provider run the
// dashboard unauthenticated and requests carry no user.
func Auth(secret string, ensure UserEnsurer, logger zerolog.Logger) func(http.Handler) http.Handler {
	if secret == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "Missing bearer token")
				return
			}

			claims := &authClaims{}
			token, err := jwt.ParseWithClaims(
				strings.TrimPrefix(header, "Bearer "),
				claims,
				func(*jwt.Token) (interface{}, error) { return key, nil },
				jwt.WithValidMethods([]string{"HS256"}),
			)
			if err != nil || !token.Valid {
				logger.Warn().Err(err).Msg("Rejected bearer token")
				unauthorized(w, "Invalid or expired token")
				return
			}
			if claims.Subject == "" {
				unauthorized(w, "Token has no subject")
				return
			}

			user := &domain.User{
				ID:    claims.Subject,
				Email: claims.Email,
				Name:  claims.Name,
			}
			if err := ensure(r.Context(), user); err != nil {
				// The request can still be served; the user row catches up
				// on the next one.
				logger.Warn().Err(err).Str("user", user.ID).Msg("Failed to upsert user")
			}

			next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
