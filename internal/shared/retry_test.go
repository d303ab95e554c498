package shared

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestRetryPolicy(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	t.Run("retries transient errors up to the attempt budget", func(t *testing.T) {
		attempts := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return Retryable(fmt.Errorf("transient"))
		})

		if err == nil {
			t.Fatal("expected error after exhausting attempts")
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("stops immediately on permanent errors", func(t *testing.T) {
		attempts := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return fmt.Errorf("permanent")
		})

		if err == nil {
			t.Fatal("expected error")
		}
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("succeeds once fn succeeds", func(t *testing.T) {
		attempts := 0
		err := policy.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 2 {
				return Retryable(fmt.Errorf("transient"))
			}
			return nil
		})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if attempts != 2 {
			t.Errorf("expected 2 attempts, got %d", attempts)
		}
	})

	t.Run("zero value makes a single attempt", func(t *testing.T) {
		attempts := 0
		_ = RetryPolicy{}.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return Retryable(fmt.Errorf("transient"))
		})
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
	})
}
