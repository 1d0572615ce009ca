package worker

import (
	"errors"
	"time"

	"github.com/seoscout/seoscout/internal/ai"
)

// RetryPolicy decides whether a failed attempt is retried and how long to
// wait before the next one. It is injected into the orchestrator so retry
// behavior is testable without a real queue.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, the first one included.
	MaxAttempts int
	// BaseDelay is the delay after the first failed attempt; it doubles on
	// every subsequent attempt.
	BaseDelay time.Duration
	// Retryable reports whether an error is transient.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the production policy: 3 attempts total,
// delays of 10s then 20s, and only provider availability and inference
// timeout errors considered transient.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Second,
		Retryable:   IsTransient,
	}
}

// IsTransient reports whether an error should be retried. Malformed provider
// responses are deterministic bugs, not transient conditions, so they are
// excluded.
func IsTransient(err error) bool {
	return errors.Is(err, ai.ErrProviderUnavailable) || errors.Is(err, ai.ErrInferenceTimeout)
}

// ShouldRetry reports whether another attempt is allowed after attempt
// (1-based) failed with err.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	if p.Retryable == nil {
		return false
	}
	return p.Retryable(err)
}

// Delay returns how long to wait after the given failed attempt before the
// next one: BaseDelay after attempt 1, doubling each attempt (10s, 20s, 40s
// with the default base).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay << (attempt - 1)
}
