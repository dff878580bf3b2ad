package driving

import "github.com/custodia-labs/reqdistill/internal/core/domain"

// SettingsService reads and writes the persisted AppSettings. Unset keys
// read as their defaults.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// A blank API key keeps the stored one, then falls back to the
	// provider's environment variable. A blank model selects the
	// provider's default; SetEntailmentProvider leaves blank fields as
	// they were.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetEntailmentProvider(provider domain.EntailmentProvider, model, baseURL, apiKey string) error

	// Validate checks the settings without network access. The
	// Validate*Config methods contact the configured service.
	Validate() error
	ValidateLLMConfig() error
	ValidateEmbeddingConfig() error
	ValidateEntailmentConfig() error
}
