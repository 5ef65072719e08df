// Package resilience provides retry and circuit-breaker machinery for
// the transport adapters' publish path: the adapter retries with
// backoff; if exhausted, it logs and returns an error that the caller
// treats as unknown-nonfatal.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig governs exponential backoff with jitter for a publish
// path.
type RetryConfig struct {
	MaxAttempts  int
	BaseInterval time.Duration
	MaxBackoff   time.Duration
}

// DefaultRetryConfig is a conservative default suited to a background
// daemon rather than a user-facing notification path.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		BaseInterval: 200 * time.Millisecond,
		MaxBackoff:   30 * time.Second,
	}
}

// Backoff returns the exponential-with-jitter delay for the given
// 0-based attempt number.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt))) * cfg.BaseInterval
	if d > cfg.MaxBackoff {
		d = cfg.MaxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(cfg.BaseInterval) + 1))
	return d + jitter
}

// Publish retries fn up to cfg.MaxAttempts times, sleeping Backoff
// between attempts, stopping early on a Permanent classification.
// It returns the last error if every attempt failed.
func Publish(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if Classify(lastErr) == Permanent {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(Backoff(attempt, cfg)):
		}
	}
	return lastErr
}
