// Package retry provides exponential-backoff retry for flaky remote loads.
package retry

import (
	"context"
	"time"

	"rastercube/internal/errors"
)

// Policy describes an exponential backoff schedule.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// Do runs op up to p.MaxAttempts times, waiting p.InitialDelay before the
// second attempt and multiplying the wait by p.Multiplier after each
// failure. The last underlying error is returned unchanged once attempts
// are exhausted; callers relying on errors.Is/As see the original failure.
// Permanent errors (violated contracts, not network weather) short-circuit
// without further attempts.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.IsPermanent(err) || attempt == attempts {
			break
		}

		if err := wait(ctx, delay); err != nil {
			// Cancelled mid-backoff: surface the cancellation, the
			// underlying failure is already stale.
			return zero, err
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return zero, lastErr
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
