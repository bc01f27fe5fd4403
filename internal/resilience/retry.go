// Package resilience wraps calls to the upstream APIs the pipeline depends
// on with bounded retries. Only errors classified transient by IsTransient
// (or a caller-supplied check) are retried; everything else surfaces
// immediately.
package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls the retry loop. The zero value is usable; unset
// fields fall back to the defaults noted below.
type RetryConfig struct {
	// Attempts is the total number of tries including the first. Default 3.
	Attempts int

	// BaseDelay is the wait before the first retry; each further retry
	// doubles it. Default 500ms.
	BaseDelay time.Duration

	// MaxDelay caps the doubling. Default 10s; the registries rate limit
	// aggressively, so waiting longer rarely helps within a sweep.
	MaxDelay time.Duration

	// Jitter randomizes each delay by ±Jitter fraction. Default 0.2.
	Jitter float64

	// Retryable overrides IsTransient when set.
	Retryable func(error) bool

	// OnRetry runs before each retry sleep with the attempt number (1-based)
	// and the error that triggered it.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig is the configuration the sourcing and enrichment
// paths use for their upstream calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  10 * time.Second,
		Jitter:    0.2,
	}
}

// Do runs fn until it succeeds, returns a non-transient error, exhausts
// cfg.Attempts, or ctx is done.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for calls that produce a value.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) || attempt == cfg.Attempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(backoff(cfg, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// backoff doubles BaseDelay per completed attempt, caps it at MaxDelay, and
// spreads it by ±Jitter so concurrent sweeps don't hammer an upstream in
// lockstep.
func backoff(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cfg.MaxDelay {
			delay = cfg.MaxDelay
			break
		}
	}
	if cfg.Jitter > 0 {
		spread := float64(delay) * cfg.Jitter
		delay += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// RetryLogger returns an OnRetry callback that records the retry on the
// global logger, tagged with the upstream service and operation.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying upstream call",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
