package retry

import (
	"context"
	"time"
)

// Policy controls how Do retries a remote call. Only errors matching
// Transient are retried; everything else fails immediately.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Transient  func(error) bool

	// sleep is swapped out in tests to observe the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the image-synthesis backoff schedule: 3 retries
// after the initial attempt, delays of 5s, 10s, 20s.
func DefaultPolicy(transient func(error) bool) Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  5 * time.Second,
		Transient:  transient,
	}
}

// Do runs op, retrying with exponential backoff on transient errors.
// The delay before retry n (1-based) is BaseDelay << (n-1). The last
// error is returned on exhaustion; callers treat it as "no output
// produced", not a session-fatal condition.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.BaseDelay << (attempt - 1)
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if p.Transient == nil || !p.Transient(err) {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
