// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/reqdistill/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/reqdistill/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/entailment/hf"
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/entailment/llmjudge"
	anthropicllm "github.com/custodia-labs/reqdistill/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/reqdistill/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/reqdistill/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/resilience"
	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// probeTimeout bounds the validation classification. Hosted NLI models
// can take a while to load on the first request.
const probeTimeout = 30 * time.Second

// probeText is classified against itself; any working classifier returns
// a label distribution for it.
const probeText = "The system exports reports as PDF."

// InitResult contains the AI services of one pipeline run.
// A nil field means the service is unavailable; Warnings say why.
type InitResult struct {
	LLMService       driven.LLMService
	EmbeddingService driven.EmbeddingService
	Classifier       driven.EntailmentClassifier
	Warnings         []string // Non-fatal issues, e.g. dedup will run degraded.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise builds the AI services described by settings.
// Generation and classification calls are wrapped with retry, rate limiting
// and a circuit breaker. Only a missing generation service is an error;
// embedding and classifier problems are reported as warnings because the
// dedup stage degrades without them.
func Initialise(settings *domain.AppSettings, prompts driven.PromptStore) (*InitResult, error) {
	if settings == nil {
		defaults := domain.DefaultAppSettings()
		settings = &defaults
	}
	result := &InitResult{}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'reqdistill settings llm' to fix", domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		return nil, fmt.Errorf("%w: %s is not configured. Run 'reqdistill settings llm' to fix",
			domain.ErrLLMUnavailable, settings.LLM.Provider)
	}
	result.LLMService = resilience.WrapLLM(llm, resilience.ConfigFromSettings(settings.Extraction))
	logger.Debug("llm: %s via %s", result.LLMService.ModelName(), settings.LLM.Provider)

	if settings.Dedup.Enabled {
		result.addDedup(settings, llm, prompts)
	}
	return result, nil
}

// InitialiseDedup builds only the embedding service and classifier, for
// deduplicating without a generation service. The LLM judge is then
// reported as unavailable.
func InitialiseDedup(settings *domain.AppSettings, prompts driven.PromptStore) *InitResult {
	if settings == nil {
		defaults := domain.DefaultAppSettings()
		settings = &defaults
	}
	result := &InitResult{}
	result.addDedup(settings, nil, prompts)
	return result
}

// addDedup fills in the dedup services. llm backs the LLM judge and may be nil.
func (r *InitResult) addDedup(settings *domain.AppSettings, llm driven.LLMService, prompts driven.PromptStore) {
	embedder, err := CreateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		r.warn("embedding unavailable, dedup will be skipped: %v", err)
	case embedder == nil:
		r.warn("embedding provider %q is not configured, dedup will be skipped", settings.Embedding.Provider)
	default:
		r.EmbeddingService = embedder
	}

	classifier, err := CreateClassifier(&settings.Entailment, llm, prompts)
	switch {
	case err != nil:
		r.warn("entailment unavailable, no pair will be merged: %v", err)
	case classifier == nil:
		r.warn("entailment provider %q is not configured, no pair will be merged", settings.Entailment.Provider)
	default:
		r.Classifier = resilience.WrapClassifier(classifier, classifierGuard(settings.Dedup))
	}
}

func (r *InitResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	logger.Warn("%s", msg)
}

// classifierGuard limits classifier calls to the verification pool size.
func classifierGuard(s domain.DedupSettings) resilience.Config {
	return resilience.Config{
		MaxConcurrent:    s.Concurrency,
		Retry:            resilience.DefaultRetryPolicy(),
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// pinger is the health check every AI service offers.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// ping checks svc within pingTimeout and releases it.
func ping(svc pinger) error {
	defer svc.Close()
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateEmbeddingConfig pings the configured embedding model.
// Unconfigured settings pass.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	return ping(svc)
}

// ValidateLLMConfig pings the configured generation model.
// Unconfigured settings pass.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	return ping(svc)
}

// ValidateEntailmentConfig classifies a probe pair with the configured
// classifier. The LLM judge is validated by pinging llmSettings instead.
func ValidateEntailmentConfig(settings *domain.EntailmentSettings, llmSettings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	if settings.Provider == domain.EntailmentProviderLLM {
		if llmSettings == nil || !llmSettings.IsConfigured() {
			return fmt.Errorf("%w: the LLM judge needs a configured LLM", domain.ErrEntailmentUnavailable)
		}
		return ValidateLLMConfig(llmSettings)
	}

	classifier, err := CreateClassifier(settings, nil, nil)
	if err != nil || classifier == nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	scores, err := classifier.Classify(ctx, probeText, probeText)
	if err != nil {
		return err
	}
	if scores.Entailment+scores.Neutral+scores.Contradiction == 0 {
		return fmt.Errorf("%w: %s returned no label scores", domain.ErrEntailmentUnavailable, classifier.ModelName())
	}
	return nil
}

var embedders = map[domain.AIProvider]func(*domain.EmbeddingSettings) (driven.EmbeddingService, error){
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

var generators = map[domain.AIProvider]func(*domain.LLMSettings) (driven.LLMService, error){
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

// CreateEmbeddingService builds the service settings select, or nil
// when they are not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := embedders[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	return build(settings)
}

// CreateLLMService builds the service settings select, or nil when
// they are not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := generators[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	return build(settings)
}

// CreateClassifier creates the entailment classifier based on settings.
// The LLM judge reuses llm, which must then be non-nil.
// Returns nil if the provider is not configured.
func CreateClassifier(
	settings *domain.EntailmentSettings,
	llm driven.LLMService,
	prompts driven.PromptStore,
) (driven.EntailmentClassifier, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.EntailmentProviderHTTP:
		return hf.NewClassifier(hf.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			APIKey:  settings.APIKey,
		}), nil

	case domain.EntailmentProviderLLM:
		if llm == nil {
			return nil, fmt.Errorf("llm entailment needs a configured LLM")
		}
		judge := llmjudge.NewClassifier(llm)
		if prompts != nil {
			judge.SetPromptStore(prompts)
		}
		return judge, nil

	default:
		return nil, fmt.Errorf("unsupported entailment provider: %s", settings.Provider)
	}
}
