package resilience

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Config holds the guard settings for a remote service.
type Config struct {
	// RatePerMinute throttles calls. Zero disables throttling.
	RatePerMinute int

	// MaxConcurrent caps in-flight calls. Zero means unlimited.
	MaxConcurrent int

	// Retry is the backoff policy for transient errors.
	Retry RetryPolicy

	// FailureThreshold opens the circuit after this many transient failures.
	// Zero disables the circuit breaker.
	FailureThreshold int

	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
}

// ConfigFromSettings builds the guard for the generation service.
func ConfigFromSettings(s domain.ExtractionSettings) Config {
	retry := DefaultRetryPolicy()
	retry.MaxRetries = s.MaxRetries
	return Config{
		RatePerMinute:    s.RatePerMinute,
		MaxConcurrent:    s.Concurrency,
		Retry:            retry,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// guard applies throttling, concurrency limits and retries to a call.
type guard struct {
	name    string
	limiter *rate.Limiter
	sem     *semaphore.Weighted
	breaker *CircuitBreaker
	retry   RetryPolicy
}

func newGuard(name string, cfg Config) *guard {
	g := &guard{name: name, retry: cfg.Retry}
	if cfg.RatePerMinute > 0 {
		perSecond := rate.Limit(float64(cfg.RatePerMinute) / 60)
		g.limiter = rate.NewLimiter(perSecond, 1)
	}
	if cfg.MaxConcurrent > 0 {
		g.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	if cfg.FailureThreshold > 0 {
		g.breaker = NewCircuitBreaker(name, cfg.FailureThreshold, 1, cfg.OpenTimeout)
	}
	return g
}

func (g *guard) do(ctx context.Context, op string, fn func(context.Context) error) error {
	if g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("%s %s: %w", g.name, op, err)
		}
		defer g.sem.Release(1)
	}
	return Retry(ctx, g.name+" "+op, g.retry, g.breaker, func(ctx context.Context) error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return fn(ctx)
	})
}

// LLMService decorates a generation service with a guard.
type LLMService struct {
	inner driven.LLMService
	guard *guard
}

// WrapLLM guards every Generate call of inner.
func WrapLLM(inner driven.LLMService, cfg Config) *LLMService {
	return &LLMService{inner: inner, guard: newGuard("llm", cfg)}
}

// Generate implements driven.LLMService.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := s.guard.do(ctx, "generate", func(ctx context.Context) error {
		var err error
		out, err = s.inner.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}

// ModelName implements driven.LLMService.
func (s *LLMService) ModelName() string {
	return s.inner.ModelName()
}

// Ping is not guarded so that it reports the raw service state.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close implements driven.LLMService.
func (s *LLMService) Close() error {
	return s.inner.Close()
}

// Breaker exposes the circuit breaker, nil when disabled.
func (s *LLMService) Breaker() *CircuitBreaker {
	return s.guard.breaker
}
