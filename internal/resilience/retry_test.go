package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	cfg.Jitter = 0
	return cfg
}

func TestDoVal_SucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastConfig(), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDoVal_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastConfig(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", Upstream("gleif", 503, nil)
		}
		return "records", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "records", got)
	assert.Equal(t, 3, calls)
}

func TestDoVal_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad api key")
	calls := 0
	_, err := DoVal(context.Background(), fastConfig(), func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	cfg := fastConfig()
	cfg.Attempts = 4
	calls := 0
	_, err := DoVal(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, Upstream("serp", 429, nil)
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)

	var upstream *UpstreamStatusError
	assert.ErrorAs(t, err, &upstream)
	assert.Equal(t, 429, upstream.StatusCode)
}

func TestDoVal_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := DoVal(ctx, fastConfig(), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, Upstream("gdelt", 503, nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_CustomRetryable(t *testing.T) {
	sentinel := errors.New("try harder")
	cfg := fastConfig()
	cfg.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	calls := 0
	got, err := DoVal(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, sentinel
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 2, calls)
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastConfig()
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_, err := DoVal(context.Background(), cfg, func(context.Context) (int, error) {
		return 0, Upstream("companies_house", 502, nil)
	})
	require.Error(t, err)
	// Three attempts, no callback after the last.
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoVal_ZeroConfigUsesDefaults(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), RetryConfig{}, func(context.Context) (int, error) {
		calls++
		return 9, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9, got)
	assert.Equal(t, 1, calls)
}

func TestDo_PropagatesError(t *testing.T) {
	permanent := errors.New("schema mismatch")
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
}

func TestDo_RetriesLikeDoVal(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		calls++
		if calls < 2 {
			return Upstream("gleif", 500, nil)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBackoff_DoublesAndCaps(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 350 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 1))
	assert.Equal(t, 200*time.Millisecond, backoff(cfg, 2))
	assert.Equal(t, 350*time.Millisecond, backoff(cfg, 3))
	assert.Equal(t, 350*time.Millisecond, backoff(cfg, 10))
}

func TestBackoff_JitterStaysInBounds(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: 0.5}
	for i := 0; i < 50; i++ {
		d := backoff(cfg, 1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
