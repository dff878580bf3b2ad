package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driving"
	"github.com/custodia-labs/reqdistill/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// fallbackExtractionPrompt is used when no prompt store is configured.
const fallbackExtractionPrompt = `Extract the functional and non-functional requirements from the text below.
Answer with two numbered lists under the headings "Functional Requirements:" and
"Non-Functional Requirements:" and nothing else.

Text:
%s`

// ExtractionService is the extraction coordinator. It serves units from
// the result cache when possible and sends the rest to the generation
// service through a bounded worker pool.
type ExtractionService struct {
	generator   driven.LLMService
	cache       driven.ResultCache
	prompts     driven.PromptStore
	concurrency int
	timeout     time.Duration
	maxTokens   int
	stopWords   []string
}

// ExtractionOption configures the extraction service.
type ExtractionOption func(*ExtractionService)

// WithExtractionConcurrency sets the worker pool size.
func WithExtractionConcurrency(n int) ExtractionOption {
	return func(s *ExtractionService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithGenerationTimeout bounds each generation call.
func WithGenerationTimeout(d time.Duration) ExtractionOption {
	return func(s *ExtractionService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxTokens caps the generated output per unit.
func WithMaxTokens(n int) ExtractionOption {
	return func(s *ExtractionService) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithStopWords ends each generation at the first of words.
func WithStopWords(words []string) ExtractionOption {
	return func(s *ExtractionService) {
		s.stopWords = words
	}
}

// WithPromptStore sets the source of the extraction template.
func WithPromptStore(p driven.PromptStore) ExtractionOption {
	return func(s *ExtractionService) {
		s.prompts = p
	}
}

// NewExtractionService creates an extraction coordinator.
// cache may be nil, in which case every unit is generated.
func NewExtractionService(
	generator driven.LLMService,
	cache driven.ResultCache,
	opts ...ExtractionOption,
) *ExtractionService {
	s := &ExtractionService{
		generator:   generator,
		cache:       cache,
		concurrency: domain.DefaultConcurrency,
		timeout:     domain.DefaultGenerationTimeout,
		maxTokens:   domain.DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract returns one result per unit. Results[k] always belongs to
// units[k], whatever order the workers finish in. A failed or timed-out
// unit leaves domain.FailedResult in its slot and is listed in Failures;
// the batch itself only fails on invalid input.
func (s *ExtractionService) Extract(ctx context.Context, units []domain.Unit) (*domain.ExtractionReport, error) {
	if s.generator == nil {
		return nil, domain.ErrLLMUnavailable
	}

	start := time.Now()
	template := s.loadTemplate()

	report := &domain.ExtractionReport{
		Results: make([]string, len(units)),
	}

	// 1. Serve what the cache already knows
	pending := make([]int, 0, len(units))
	for k, unit := range units {
		if result, ok := s.cached(ctx, unit); ok {
			report.Results[k] = result
			report.CacheHits++
			logger.Debug("unit %d: cache hit", k)
			continue
		}
		pending = append(pending, k)
	}

	logger.Info("Extracting %d units (%d cached, %d to generate, %d workers)",
		len(units), report.CacheHits, len(pending), s.concurrency)

	// 2. Generate the misses, each into its own slot
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, k := range pending {
		unit := units[k]
		g.Go(func() error {
			unitStart := time.Now()
			logger.Debug("unit %d: generating (%d chars)", unit.Index, unit.Len())

			result, err := s.generate(ctx, template, unit)
			if err != nil {
				logger.Warn("unit %d failed after %s: %v", k, time.Since(unitStart).Round(time.Millisecond), err)
				mu.Lock()
				report.Failures = append(report.Failures, domain.UnitFailure{Index: k, Err: err})
				mu.Unlock()
				return nil
			}

			report.Results[k] = result
			mu.Lock()
			report.Generated++
			mu.Unlock()

			logger.Debug("unit %d: done in %s", k, time.Since(unitStart).Round(time.Millisecond))
			s.store(ctx, unit, result)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Index < report.Failures[j].Index
	})
	report.Duration = time.Since(start)

	logger.Info("Extraction finished in %s: %d generated, %d failed",
		report.Duration.Round(time.Millisecond), report.Generated, len(report.Failures))

	return report, nil
}

// generate runs one bounded generation call. The call is abandoned when
// its deadline passes even if the generator ignores the context.
func (s *ExtractionService) generate(ctx context.Context, template string, unit domain.Unit) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	prompt := buildPrompt(template, unit.Text)
	go func() {
		text, err := s.generator.Generate(callCtx, prompt, driven.GenerateOptions{
			MaxTokens: s.maxTokens,
			StopWords: s.stopWords,
		})
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return "", fmt.Errorf("generation timed out after %s: %w", s.timeout, out.err)
			}
			return "", fmt.Errorf("generate: %w", out.err)
		}
		return strings.TrimSpace(out.text), nil
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return "", fmt.Errorf("generate: %w", ctx.Err())
		}
		return "", fmt.Errorf("generation timed out after %s: %w", s.timeout, callCtx.Err())
	}
}

func (s *ExtractionService) cached(ctx context.Context, unit domain.Unit) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	result, ok, err := s.cache.Get(ctx, unit.Hash)
	if err != nil {
		logger.Warn("unit %d: cache read failed: %v", unit.Index, err)
		return "", false
	}
	return result, ok
}

// store writes a result back to the cache. Write errors never fail the unit.
func (s *ExtractionService) store(ctx context.Context, unit domain.Unit, result string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, unit.Hash, result); err != nil {
		logger.Warn("unit %d: cache write failed: %v", unit.Index, err)
	}
}

func (s *ExtractionService) loadTemplate() string {
	if s.prompts == nil {
		return fallbackExtractionPrompt
	}
	template, err := s.prompts.Load(driven.PromptExtractRequirements)
	if err != nil || strings.TrimSpace(template) == "" {
		logger.Warn("extraction prompt unavailable, using built-in template: %v", err)
		return fallbackExtractionPrompt
	}
	return template
}

// buildPrompt substitutes the first %s of template with text, or appends
// text when the template has no placeholder. Other % signs are literal.
func buildPrompt(template, text string) string {
	if strings.Contains(template, "%s") {
		return strings.Replace(template, "%s", text, 1)
	}
	return template + "\n\n" + text
}
