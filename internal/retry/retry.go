// Package retry implements exponential backoff for transient failures.
// It is the only place backoff timing is computed; callers never retry
// directly.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Transient is implemented by errors that may succeed on a later attempt
// (network failures, rate-limit responses, malformed payloads). Errors
// without this method, or returning false, propagate immediately.
type Transient interface {
	Transient() bool
}

// IsTransient reports whether err should trigger a retry.
func IsTransient(err error) bool {
	var t Transient
	return errors.As(err, &t) && t.Transient()
}

// ExhaustedError is returned after all attempts fail. It carries the last
// underlying error and the number of attempts made. It is fatal: callers
// must abort the run rather than retry again.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Config holds retry settings.
type Config struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt
}

// Do calls fn up to cfg.MaxAttempts times, waiting baseDelay * 2^(attempt-1)
// with jitter between attempts. It returns the result, the number of attempts
// made, and the final error. Non-transient errors propagate without retry;
// exhausting all attempts returns an *ExhaustedError.
func Do[T any](ctx context.Context, cfg Config, logger *slog.Logger, fn func(context.Context) (T, error)) (T, int, error) {
	var zero T
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	backoff := cfg.BaseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			// Jitter: backoff * (0.5 to 1.5)
			wait := backoff/2 + time.Duration(rand.Int63n(int64(backoff)+1))
			logger.Debug("retrying after transient error",
				"attempt", attempt,
				"backoff", wait,
				"error", lastErr,
			)

			select {
			case <-ctx.Done():
				return zero, attempt - 1, ctx.Err()
			case <-time.After(wait):
			}

			backoff *= 2
		}

		result, err := fn(ctx)
		if err == nil {
			return result, attempt, nil
		}

		lastErr = err
		if !IsTransient(err) {
			return zero, attempt, err
		}
	}

	return zero, maxAttempts, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}
