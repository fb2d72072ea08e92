package worker

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/claimsift/claimsift/internal/model"
)

// CallLimiter bounds external generation calls: a token bucket for request
// rate, a semaphore for in-flight concurrency, a per-call timeout, and a
// single retry on transient failure. After the retry exhausts, the error
// escalates to the caller, which marks the probe ExtractionFailed and moves
// on.
type CallLimiter struct {
	limiter     *rate.Limiter
	sem         chan struct{}
	callTimeout time.Duration
	maxAttempts int
	retryDelay  time.Duration
}

// NewCallLimiter creates a limiter from concurrency configuration.
func NewCallLimiter(cfg model.ConcurrencyConfig) *CallLimiter {
	limit := cfg.GenerationLimit
	if limit <= 0 {
		limit = 1
	}
	rps := cfg.GenerationRPS
	if rps <= 0 {
		rps = 1
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CallLimiter{
		limiter:     rate.NewLimiter(rate.Limit(rps), limit),
		sem:         make(chan struct{}, limit),
		callTimeout: timeout,
		maxAttempts: attempts,
		retryDelay:  time.Second,
	}
}

// Do runs fn under the rate and concurrency bounds. A cancelled context
// stops new attempts immediately; the retry applies only to fn's own
// transient errors.
func (l *CallLimiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case l.sem <- struct{}{}:
	}
	defer func() { <-l.sem }()

	var lastErr error
	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.retryDelay):
			}
		}
		if err := l.limiter.Wait(ctx); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, l.callTimeout)
		lastErr = fn(callCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
