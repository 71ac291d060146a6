package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{MaxRetries: 3, BaseDelay: time.Millisecond}
}

func TestDoReturnsFirstSuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), zerolog.Nop(), "op", fastConfig(), func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), zerolog.Nop(), "op", fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("timed out fetching a new connection from the connection pool")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsRetryBudget(t *testing.T) {
	calls := 0
	transient := errors.New("connection pool exhausted")
	_, err := Do(context.Background(), zerolog.Nop(), "op", fastConfig(), func(ctx context.Context) (int, error) {
		calls++
		return 0, transient
	})

	require.Error(t, err)
	assert.Equal(t, transient, err)
	// initial attempt plus three retries
	assert.Equal(t, 4, calls)
}

func TestDoDoesNotRetryNonTransientErrors(t *testing.T) {
	calls := 0
	boom := errors.New("duplicate key error")
	_, err := Do(context.Background(), zerolog.Nop(), "op", fastConfig(), func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	})

	require.Error(t, err)
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, zerolog.Nop(), "op", Config{MaxRetries: 3, BaseDelay: time.Minute}, func(ctx context.Context) (int, error) {
		return 0, errors.New("connection pool exhausted")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errors.New("Timed out fetching a new connection from the connection pool")))
	assert.True(t, IsTransient(errors.New("server selection timeout")))
	assert.False(t, IsTransient(errors.New("E11000 duplicate key error")))
	assert.False(t, IsTransient(nil))
}
