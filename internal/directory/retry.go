package directory

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls retry behavior for transient directory API failures.
// The delay before retry N is BaseDelay * Multiplier^(N-1), capped at
// MaxDelay, with optional random jitter.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the first retry
	Multiplier  float64       // exponential growth factor
	MaxDelay    time.Duration // upper bound on any single delay
	Jitter      float64       // fraction of the delay randomized, 0..1
}

// DefaultRetryPolicy matches the directory API's documented client guidance:
// three attempts with a 1s base delay doubling between attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the backoff delay after the given 1-based attempt number.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}

	d := float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
		if d < 0 {
			d = 0
		}
	}

	return time.Duration(d)
}

// Do invokes op, retrying transient failures until the attempt ceiling is
// reached. Non-transient errors are returned immediately. The sleep between
// attempts respects context cancellation.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil || !IsTransient(err) || attempt >= attempts {
			return err
		}

		delay := p.Delay(attempt)
		slog.Debug("retrying transient directory failure",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
