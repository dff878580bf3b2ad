package driven

import "github.com/custodia-labs/reqdistill/internal/core/domain"

// AIConfigValidator checks provider settings against the live services.
// Unconfigured settings have nothing to check and yield nil.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the generation provider.
	ValidateLLM(config *domain.LLMSettings) error

	// ValidateEntailment runs one probe classification. The LLM judge is
	// checked through llm, the generation model it reuses.
	ValidateEntailment(config *domain.EntailmentSettings, llm *domain.LLMSettings) error
}
