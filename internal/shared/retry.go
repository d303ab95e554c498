package shared

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy describes how call sites back off on transient upstream
// failures: exponential delay with jitter, bounded by a total attempt count.
//
// A zero MaxAttempts means a single attempt with no retries.
type RetryPolicy struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
	Jitter      time.Duration
}

// DefaultRetryPolicy matches the catalog collaborator's historical behavior:
// three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Jitter: 250 * time.Millisecond}
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	b := retry.NewExponential(base)
	if p.Jitter > 0 {
		b = retry.WithJitter(p.Jitter, b)
	}

	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	return retry.WithMaxRetries(attempts-1, b)
}

// Do runs fn under the policy. fn marks an error as transient by wrapping it
// with [Retryable]; any other error aborts immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, p.backoff(), fn)
}

// Retryable marks err as transient so [RetryPolicy.Do] retries it.
func Retryable(err error) error {
	return retry.RetryableError(err)
}
