package crawler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/linkratio/linkratio/internal/config"
)

// RetryPolicy configures retry behavior for failed fetches.
type RetryPolicy struct {
	// MaxAttempts is the total number of fetch attempts, including the
	// first one. The max_retries config option maps directly onto this:
	// with the default of 3, a URL is tried at most three times.
	MaxAttempts int

	// BaseBackoff is the delay before the first retry. The delay doubles
	// before each subsequent retry.
	BaseBackoff time.Duration

	// JitterMax bounds the uniform random jitter added to every backoff
	// delay. Concurrent fetches that fail together would otherwise retry
	// in lockstep against the same struggling server.
	JitterMax time.Duration

	// MaxBackoff caps the exponential backoff delay (before jitter).
	MaxBackoff time.Duration
}

// DefaultRetryPolicy returns a RetryPolicy with the configured defaults:
// 3 total attempts, 1s base backoff doubling per retry, up to 1s jitter,
// capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: config.DefaultMaxRetries,
		BaseBackoff: config.DefaultBaseBackoff,
		JitterMax:   config.DefaultJitterMax,
		MaxBackoff:  30 * time.Second,
	}
}

// FetchWithRetry wraps a Fetcher call with the retry policy.
//
// Transient failures (network errors, timeouts, 5xx) are retried with
// exponential backoff plus jitter until MaxAttempts is exhausted.
// Permanent failures (malformed URL, DNS not-found, 4xx) return
// immediately without retry. The returned attempt count includes the
// final attempt, successful or not.
func FetchWithRetry(ctx context.Context, fetcher Fetcher, url string, policy RetryPolicy, logger *slog.Logger) (*FetchResponse, int, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	backoff := policy.BaseBackoff
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		resp, err := fetcher.Fetch(ctx, url)
		if err == nil {
			return resp, attempt, nil
		}
		lastErr = err

		if !IsTransient(err) {
			logger.Debug("permanent fetch failure, not retrying",
				"url", url,
				"attempt", attempt,
				"error", err,
			)
			return nil, attempt, err
		}

		if attempt == policy.MaxAttempts {
			break
		}

		delay := backoff + randomJitter(policy.JitterMax)
		logger.Debug("transient fetch failure, backing off",
			"url", url,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(delay):
		}

		backoff = min(backoff*2, policy.MaxBackoff)
	}

	logger.Debug("retries exhausted",
		"url", url,
		"attempts", policy.MaxAttempts,
		"error", lastErr,
	)
	return nil, policy.MaxAttempts, lastErr
}

// randomJitter returns a duration drawn uniformly from [0, max).
// Returns 0 when max is not positive.
func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Float64() * float64(max))
}
