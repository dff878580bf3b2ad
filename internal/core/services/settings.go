package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyNLIProvider       = "entailment.provider"
	keyNLIModel          = "entailment.model"
	keyNLIBaseURL        = "entailment.base_url"
	keyNLIAPIKey         = "entailment.api_key"
	keyChunkMaxSize      = "chunker.max_size"
	keyExtractWorkers    = "extraction.concurrency"
	keyExtractTimeout    = "extraction.timeout"
	keyExtractRate       = "extraction.rate_per_minute"
	keyExtractRetries    = "extraction.max_retries"
	keyExtractStop       = "extraction.stop"
	keyDedupEnabled      = "dedup.enabled"
	keyDedupCandidate    = "dedup.candidate_threshold"
	keyDedupConfirmation = "dedup.confirmation_threshold"
	keyDedupWorkers      = "dedup.concurrency"
	keyDedupTimeout      = "dedup.timeout"
	keyCacheBackend      = "cache.backend"
	keyCacheDir          = "cache.dir"
)

// API key environment fallbacks, read when the config file has no key.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvHFToken      = "HF_API_TOKEN"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	def := domain.DefaultAppSettings()
	r := keyReader{s.configStore}

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:  validOr(r, keyLLMProvider, def.LLM.Provider),
			BaseURL:   r.str(keyLLMBaseURL, ""),
			APIKey:    r.str(keyLLMAPIKey, ""),
			MaxTokens: r.nonZero(keyLLMMaxTokens, def.LLM.MaxTokens),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: validOr(r, keyEmbedProvider, def.Embedding.Provider),
			BaseURL:  r.str(keyEmbedBaseURL, ""),
			APIKey:   r.str(keyEmbedAPIKey, ""),
		},
		Entailment: domain.EntailmentSettings{
			Provider: validOr(r, keyNLIProvider, def.Entailment.Provider),
			Model:    r.str(keyNLIModel, def.Entailment.Model),
			BaseURL:  r.str(keyNLIBaseURL, def.Entailment.BaseURL),
			APIKey:   r.str(keyNLIAPIKey, ""),
		},
		Chunker: domain.ChunkerSettings{
			MaxSize: r.nonZero(keyChunkMaxSize, def.Chunker.MaxSize),
		},
		Extraction: domain.ExtractionSettings{
			Concurrency:   r.nonZero(keyExtractWorkers, def.Extraction.Concurrency),
			Timeout:       r.duration(keyExtractTimeout, def.Extraction.Timeout),
			RatePerMinute: r.integer(keyExtractRate, 0),
			MaxRetries:    r.integer(keyExtractRetries, def.Extraction.MaxRetries),
			StopWords:     r.store.GetStringSlice(keyExtractStop),
		},
		Dedup: domain.DedupSettings{
			Enabled:               r.boolean(keyDedupEnabled, def.Dedup.Enabled),
			CandidateThreshold:    r.float(keyDedupCandidate, def.Dedup.CandidateThreshold),
			ConfirmationThreshold: r.float(keyDedupConfirmation, def.Dedup.ConfirmationThreshold),
			Concurrency:           r.nonZero(keyDedupWorkers, def.Dedup.Concurrency),
			Timeout:               r.duration(keyDedupTimeout, def.Dedup.Timeout),
		},
		Cache: domain.CacheSettings{
			Backend: validOr(r, keyCacheBackend, def.Cache.Backend),
			Dir:     r.str(keyCacheDir, ""),
		},
	}

	// Model and endpoint defaults follow the selected provider.
	settings.LLM.Model = r.str(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])
	settings.Embedding.Model = r.str(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	if settings.LLM.Provider.IsLocal() && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = def.LLM.BaseURL
	}
	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = def.Embedding.BaseURL
	}

	s.applyEnvKeys(settings)

	return settings, nil
}

// applyEnvKeys fills missing API keys from the environment.
func (s *SettingsService) applyEnvKeys(settings *domain.AppSettings) {
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envKeyFor(settings.LLM.Provider)
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envKeyFor(settings.Embedding.Provider)
	}
	if settings.Entailment.APIKey == "" && settings.Entailment.Provider == domain.EntailmentProviderHTTP {
		settings.Entailment.APIKey = s.getenv(EnvHFToken)
	}
}

func (s *SettingsService) envKeyFor(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicKey)
	default:
		return ""
	}
}

// Save persists application settings.
// API keys are only written when set and not taken from the environment.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyNLIProvider, settings.Entailment.Provider.String()},
		{keyNLIModel, settings.Entailment.Model},
		{keyNLIBaseURL, settings.Entailment.BaseURL},
		{keyChunkMaxSize, settings.Chunker.MaxSize},
		{keyExtractWorkers, settings.Extraction.Concurrency},
		{keyExtractTimeout, settings.Extraction.Timeout.String()},
		{keyExtractRate, settings.Extraction.RatePerMinute},
		{keyExtractRetries, settings.Extraction.MaxRetries},
		{keyExtractStop, settings.Extraction.StopWords},
		{keyDedupEnabled, settings.Dedup.Enabled},
		{keyDedupCandidate, settings.Dedup.CandidateThreshold},
		{keyDedupConfirmation, settings.Dedup.ConfirmationThreshold},
		{keyDedupWorkers, settings.Dedup.Concurrency},
		{keyDedupTimeout, settings.Dedup.Timeout.String()},
		{keyCacheBackend, string(settings.Cache.Backend)},
		{keyCacheDir, settings.Cache.Dir},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct {
		key, value, env string
	}{
		{keyLLMAPIKey, settings.LLM.APIKey, s.envKeyFor(settings.LLM.Provider)},
		{keyEmbedAPIKey, settings.Embedding.APIKey, s.envKeyFor(settings.Embedding.Provider)},
		{keyNLIAPIKey, settings.Entailment.APIKey, s.getenv(EnvHFToken)},
	}
	for _, secret := range secrets {
		key, value := secret.key, secret.value
		if value == "" || value == secret.env {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetLLMProvider configures the generation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" && provider == settings.LLM.Provider {
		apiKey = settings.LLM.APIKey
	}
	if apiKey == "" {
		apiKey = s.envKeyFor(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" && provider == settings.Embedding.Provider {
		apiKey = settings.Embedding.APIKey
	}
	if apiKey == "" {
		apiKey = s.envKeyFor(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetEntailmentProvider configures the entailment classifier.
func (s *SettingsService) SetEntailmentProvider(
	provider domain.EntailmentProvider, model, baseURL, apiKey string,
) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid entailment provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Entailment.Provider = provider
	if model != "" {
		settings.Entailment.Model = model
	}
	if baseURL != "" {
		settings.Entailment.BaseURL = baseURL
	}
	if apiKey != "" {
		settings.Entailment.APIKey = apiKey
	}

	if !settings.Entailment.IsConfigured() {
		return fmt.Errorf("%w: entailment provider %s needs a base URL", domain.ErrInvalidInput, provider)
	}

	return s.Save(settings)
}

// Validate checks that current settings can run the pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Validate(); err != nil {
		return err
	}

	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: %s requires an API key", domain.ErrLLMUnavailable, settings.LLM.Provider.Description())
	}

	if settings.Dedup.Enabled {
		if !settings.Embedding.IsConfigured() {
			return fmt.Errorf("%w: deduplication requires an embedding provider", domain.ErrEmbeddingUnavailable)
		}
		if !settings.Entailment.IsConfigured() {
			return fmt.Errorf("%w: deduplication requires an entailment provider", domain.ErrEntailmentUnavailable)
		}
	}

	return nil
}

func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (s *SettingsService) ValidateEmbeddingConfig() error {
	return s.probe(func(v driven.AIConfigValidator, st *domain.AppSettings) error {
		return v.ValidateEmbedding(&st.Embedding)
	})
}

func (s *SettingsService) ValidateLLMConfig() error {
	return s.probe(func(v driven.AIConfigValidator, st *domain.AppSettings) error {
		return v.ValidateLLM(&st.LLM)
	})
}

// ValidateEntailmentConfig classifies a probe pair, or pings the LLM
// when it is the judge.
func (s *SettingsService) ValidateEntailmentConfig() error {
	return s.probe(func(v driven.AIConfigValidator, st *domain.AppSettings) error {
		return v.ValidateEntailment(&st.Entailment, &st.LLM)
	})
}

// probe runs check against the current settings. Without a validator
// every configuration passes.
func (s *SettingsService) probe(check func(driven.AIConfigValidator, *domain.AppSettings) error) error {
	if s.aiValidator == nil {
		return nil
	}
	st, err := s.Get()
	if err != nil {
		return err
	}
	return check(s.aiValidator, st)
}

// keyReader reads config keys, substituting a default for keys that
// are unset or hold an unusable value.
type keyReader struct {
	store driven.ConfigStore
}

func (r keyReader) str(key, def string) string {
	if v := r.store.GetString(key); v != "" {
		return v
	}
	return def
}

// nonZero treats 0 as unset, for sizes and pool widths.
func (r keyReader) nonZero(key string, def int) int {
	if v := r.store.GetInt(key); v != 0 {
		return v
	}
	return def
}

// integer honours an explicit 0.
func (r keyReader) integer(key string, def int) int {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetInt(key)
}

func (r keyReader) float(key string, def float64) float64 {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetFloat(key)
}

func (r keyReader) boolean(key string, def bool) bool {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetBool(key)
}

// duration parses values such as "90s" or "5m"; non-positive ones
// fall back to def.
func (r keyReader) duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(r.store.GetString(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

type enum interface {
	~string
	IsValid() bool
}

func validOr[E enum](r keyReader, key string, def E) E {
	if v := E(r.store.GetString(key)); v.IsValid() {
		return v
	}
	return def
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}

// baseURLFor keeps a configured endpoint for local providers and clears
// it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}
