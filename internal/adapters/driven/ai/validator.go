package ai

import (
	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks settings by building the services they describe
// and calling them once.
type ConfigValidator struct{}

// NewConfigValidator creates a config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding implements driven.AIConfigValidator.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config)
}

// ValidateLLM implements driven.AIConfigValidator.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}

// ValidateEntailment implements driven.AIConfigValidator.
func (v *ConfigValidator) ValidateEntailment(config *domain.EntailmentSettings, llm *domain.LLMSettings) error {
	return ValidateEntailmentConfig(config, llm)
}
