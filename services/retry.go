package services

import (
	"context"
	"time"
)

// RetryConfig configures exponential backoff between attempts
type RetryConfig struct {
	MaxAttempts int           // total attempts, the first one included
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // upper bound for any single delay
	Multiplier  float64
}

// DefaultRetryConfig returns the backoff used for order placement
func DefaultRetryConfig(maxAttempts int) RetryConfig {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   25 * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
		Multiplier:  2,
	}
}

// retryWithBackoff calls fn until it succeeds, returns an error retryable rejects,
// or runs out of attempts. attempt starts at 1. Cancelling ctx stops the loop and
// returns the last error seen.
func retryWithBackoff[T any](ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil || attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, lastErr
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * cfg.Multiplier)
			if backoff > cfg.MaxDelay {
				backoff = cfg.MaxDelay
			}
		}
	}

	return zero, lastErr
}
