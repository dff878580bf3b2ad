package domain

import (
	"fmt"
	"time"
)

// EmbeddingSettings selects the model that embeds requirements for
// candidate search. BaseURL overrides the provider's endpoint.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports an embedding-capable provider with its key.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbeddings() && (!e.Provider.RequiresAPIKey() || e.APIKey != "")
}

// LLMSettings selects the model that extracts requirement lists.
// MaxTokens caps each generation.
type LLMSettings struct {
	Provider  AIProvider
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
}

func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && (!l.Provider.RequiresAPIKey() || l.APIKey != "")
}

// EntailmentSettings holds NLI classifier configuration.
type EntailmentSettings struct {
	// Provider selects the classifier backend.
	Provider EntailmentProvider

	// Model is the NLI model name, appended to BaseURL for the HTTP provider.
	Model string

	// BaseURL is the classification endpoint.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string
}

// IsConfigured returns true if the classifier is set up.
func (e EntailmentSettings) IsConfigured() bool {
	switch e.Provider {
	case EntailmentProviderHTTP:
		return e.BaseURL != ""
	case EntailmentProviderLLM:
		return true
	default:
		return false
	}
}

// ChunkerSettings holds unit sizing configuration.
type ChunkerSettings struct {
	// MaxSize is the maximum unit length in characters.
	MaxSize int
}

// ExtractionSettings holds extraction coordinator configuration.
type ExtractionSettings struct {
	// Concurrency is the worker pool size.
	Concurrency int

	// Timeout bounds each generation call.
	Timeout time.Duration

	// RatePerMinute throttles generation calls. Zero disables throttling.
	RatePerMinute int

	// MaxRetries is the number of retries for transient generation errors.
	MaxRetries int

	// StopWords end a unit's generation early, e.g. a closing marker the
	// prompt asks the model to print.
	StopWords []string
}

// DedupSettings holds dedup engine configuration.
type DedupSettings struct {
	// Enabled turns the dedup stage on.
	Enabled bool

	// CandidateThreshold is the cosine similarity a pair must exceed
	// to be verified.
	CandidateThreshold float64

	// ConfirmationThreshold is the entailment score a pair must reach
	// to be declared a duplicate.
	ConfirmationThreshold float64

	// Concurrency is the verification worker pool size.
	Concurrency int

	// Timeout bounds each classification and embedding call.
	Timeout time.Duration
}

// CacheBackend selects the result cache implementation.
type CacheBackend string

// Available cache backends.
const (
	CacheBackendFile   CacheBackend = "file"
	CacheBackendSQLite CacheBackend = "sqlite"
	CacheBackendMemory CacheBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheBackendFile, CacheBackendSQLite, CacheBackendMemory:
		return true
	default:
		return false
	}
}

// CacheSettings holds result cache configuration.
type CacheSettings struct {
	// Backend selects the implementation.
	Backend CacheBackend

	// Dir overrides the default cache location.
	Dir string
}

// Pipeline defaults.
const (
	DefaultMaxUnitSize           = 1500
	DefaultConcurrency           = 2
	DefaultGenerationTimeout     = 300 * time.Second
	DefaultMaxRetries            = 2
	DefaultCandidateThreshold    = 0.6
	DefaultConfirmationThreshold = 0.9
	DefaultDedupTimeout          = 60 * time.Second
	DefaultMaxTokens             = 4096
)

// AppSettings holds all application settings.
type AppSettings struct {
	LLM        LLMSettings
	Embedding  EmbeddingSettings
	Entailment EntailmentSettings
	Chunker    ChunkerSettings
	Extraction ExtractionSettings
	Dedup      DedupSettings
	Cache      CacheSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The default providers run locally and need no API key.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultLLMModels()[AIProviderOllama],
			BaseURL:   "http://localhost:11434",
			MaxTokens: DefaultMaxTokens,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:  "http://localhost:11434",
		},
		Entailment: EntailmentSettings{
			Provider: EntailmentProviderHTTP,
			Model:    DefaultEntailmentModel,
			BaseURL:  "https://api-inference.huggingface.co/models",
		},
		Chunker: ChunkerSettings{
			MaxSize: DefaultMaxUnitSize,
		},
		Extraction: ExtractionSettings{
			Concurrency: DefaultConcurrency,
			Timeout:     DefaultGenerationTimeout,
			MaxRetries:  DefaultMaxRetries,
		},
		Dedup: DedupSettings{
			Enabled:               true,
			CandidateThreshold:    DefaultCandidateThreshold,
			ConfirmationThreshold: DefaultConfirmationThreshold,
			Concurrency:           DefaultConcurrency,
			Timeout:               DefaultDedupTimeout,
		},
		Cache: CacheSettings{
			Backend: CacheBackendFile,
		},
	}
}

// Validate checks that numeric settings are within range.
func (s AppSettings) Validate() error {
	if s.Chunker.MaxSize < 1 {
		return fmt.Errorf("%w: chunker.max_size must be positive, got %d", ErrInvalidInput, s.Chunker.MaxSize)
	}
	if s.Extraction.Concurrency < 1 {
		return fmt.Errorf("%w: extraction.concurrency must be positive, got %d", ErrInvalidInput, s.Extraction.Concurrency)
	}
	if s.Dedup.Concurrency < 1 {
		return fmt.Errorf("%w: dedup.concurrency must be positive, got %d", ErrInvalidInput, s.Dedup.Concurrency)
	}
	if s.Dedup.CandidateThreshold < 0 || s.Dedup.CandidateThreshold > 1 {
		return fmt.Errorf("%w: dedup.candidate_threshold must be in [0,1], got %.2f",
			ErrInvalidInput, s.Dedup.CandidateThreshold)
	}
	if s.Dedup.ConfirmationThreshold < 0 || s.Dedup.ConfirmationThreshold > 1 {
		return fmt.Errorf("%w: dedup.confirmation_threshold must be in [0,1], got %.2f",
			ErrInvalidInput, s.Dedup.ConfirmationThreshold)
	}
	if s.Extraction.RatePerMinute < 0 {
		return fmt.Errorf("%w: extraction.rate_per_minute must not be negative", ErrInvalidInput)
	}
	if !s.Cache.Backend.IsValid() {
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidInput, s.Cache.Backend)
	}
	return nil
}
