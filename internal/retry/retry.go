// Package retry is the single place where retry policy for transient
// infrastructure failures is defined. Every database-touching operation
// in the sync path goes through Do.
package retry

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the retry budget and backoff schedule.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultConfig matches the retry budget the sync path has always used:
// three retries starting at 200ms, doubling each attempt.
func DefaultConfig() Config {
	return Config{MaxRetries: 3, BaseDelay: 200 * time.Millisecond}
}

// transientSubstrings are the connection-pool timeout indicators that make
// an error worth retrying. Anything else propagates unchanged.
var transientSubstrings = []string{
	"connection pool",
	"pool timed out",
	"timed out fetching a new connection",
	"server selection timeout",
}

// IsTransient reports whether err looks like a transient pool exhaustion
// rather than a real failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range transientSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Do executes fn, retrying on transient errors up to cfg.MaxRetries with
// exponential backoff (BaseDelay * 2^(attempt-1)). Context cancellation
// cuts the wait short. Non-transient errors return immediately.
func Do[T any](ctx context.Context, logger zerolog.Logger, label string, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempt := 0
	for {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		attempt++
		if attempt > cfg.MaxRetries || !IsTransient(err) {
			return zero, err
		}

		delay := cfg.BaseDelay << (attempt - 1)
		logger.Warn().
			Str("label", label).
			Int("attempt", attempt).
			Int("maxRetries", cfg.MaxRetries).
			Dur("delay", delay).
			Err(err).
			Msg("Transient failure, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
