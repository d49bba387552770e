package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls how many times an LLM call is attempted and how long to
// wait between attempts.
type Policy struct {
	// Attempts is the total number of tries. 1 disables retries.
	Attempts int

	// Backoff is the delay before the first retry; it doubles after each
	// attempt up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration

	// Jitter spreads each delay by ±Jitter of its value.
	Jitter float64

	// Retryable decides whether an error is worth another attempt.
	// Defaults to IsTransient.
	Retryable func(err error) bool

	// OnRetry runs before each sleep.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns three attempts starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		Backoff:    time.Second,
		MaxBackoff: 20 * time.Second,
		Jitter:     0.2,
	}
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = time.Second
	}
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = p.Backoff
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// delay returns the wait before retry number attempt (0-based).
func (p Policy) delay(attempt int) time.Duration {
	d := p.Backoff << attempt
	if d <= 0 || d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	if d < 0 {
		return 0
	}
	return d
}

// Retry runs fn until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx is done. The last error is returned.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := RetryVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RetryVal is Retry for functions that produce a value.
func RetryVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var zero T
	for attempt := 0; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt >= p.Attempts-1 {
			return zero, err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

// LogRetries returns an OnRetry callback that logs each retry at warn level.
func LogRetries(component, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying call",
			zap.String("component", component),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
