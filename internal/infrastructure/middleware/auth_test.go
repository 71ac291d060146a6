package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-insights/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": "ops@example.com",
		"name":  "Ops Person",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, domain.UserFromContext(r.Context()))
	})

	handler := Auth("", nil, zerolog.Nop())(next)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stores", nil))

	assert.True(t, called)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testSecret, nil, zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stores", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsForgedToken(t *testing.T) {
	handler := Auth(testSecret, nil, zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stores", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret-wrong-secret-wrong!", "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAcceptsValidTokenAndUpsertsUser(t *testing.T) {
	var ensured *domain.User
	ensure := func(_ context.Context, user *domain.User) error {
		ensured = user
		return nil
	}

	var seen *domain.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = domain.UserFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stores", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1"))
	rec := httptest.NewRecorder()
	Auth(testSecret, ensure, zerolog.Nop())(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.ID)
	assert.Equal(t, "ops@example.com", seen.Email)
	require.NotNil(t, ensured)
	assert.Equal(t, "user-1", ensured.ID)
}
