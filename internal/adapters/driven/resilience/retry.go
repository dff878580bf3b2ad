package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/logger"
)

// RetryPolicy configures exponential backoff.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first.
	MaxRetries int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration

	// Multiplier grows the wait after each retry.
	Multiplier float64
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     domain.DefaultMaxRetries,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2,
	}
}

// Retry runs fn until it succeeds, fails permanently or the attempts run
// out. Only transient errors are retried and counted by the breaker.
func Retry(ctx context.Context, name string, policy RetryPolicy, breaker *CircuitBreaker, fn func(context.Context) error) error {
	backoff := policy.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if breaker != nil {
			if err := breaker.Allow(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}

		err := fn(ctx)
		if err == nil {
			if breaker != nil {
				breaker.RecordSuccess()
			}
			if attempt > 0 {
				logger.Debug("%s succeeded after %d retries", name, attempt)
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return err
		}
		if !IsRetriable(err) {
			return err
		}
		if breaker != nil {
			breaker.RecordFailure()
		}
		if attempt == policy.MaxRetries {
			break
		}

		logger.Debug("%s failed (attempt %d/%d), retrying in %s: %v",
			name, attempt+1, policy.MaxRetries+1, backoff, err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
		backoff = time.Duration(float64(backoff) * policy.Multiplier)
		if policy.MaxBackoff > 0 && backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, policy.MaxRetries+1, lastErr)
}

// IsRetriable reports whether err is transient: a rate limit, a server
// error, or a network failure.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrCircuitOpen) {
		return false
	}
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}

	var status *domain.StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}
