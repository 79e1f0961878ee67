package retry

import (
	"context"
	"time"
)

// Policy is a reusable retry policy: a bounded attempt count and a
// backoff function, decoupled from the calls it wraps. The zero delay
// backoff is valid and useful in tests.
type Policy struct {
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

// New returns a policy with the given attempt budget. maxAttempts below
// 1 is treated as 1: there are no unbounded retry loops.
func New(maxAttempts int, backoff func(attempt int) time.Duration) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff == nil {
		backoff = func(int) time.Duration { return 0 }
	}
	return &Policy{maxAttempts: maxAttempts, backoff: backoff}
}

// Exponential returns a backoff function doubling from base per attempt,
// capped at max
func Exponential(base, max time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		d := base << uint(attempt-1)
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

// MaxAttempts returns the attempt budget
func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}

// Do invokes fn up to the attempt budget, sleeping the backoff between
// attempts. It stops early when the context is cancelled and returns
// the last error, or nil once fn succeeds. The 1-based attempt number
// is passed to fn so callers can account attempts themselves.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.backoff(attempt-1)); err != nil {
				return err
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(ctx, attempt); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
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
