package driven

import "context"

// LLMService turns one prompt into one completion. Extraction sends a
// prompt per unit; the LLM entailment judge sends one per candidate pair.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName identifies the model in run records and cache keys.
	ModelName() string

	// Ping checks that the provider answers and the model is usable
	// without running a completion.
	Ping(ctx context.Context) error

	Close() error
}

// OutputFormat constrains what the model may answer with.
type OutputFormat int

const (
	// FormatText leaves the answer unconstrained.
	FormatText OutputFormat = iota
	// FormatJSON asks the provider for a single JSON object, using its
	// native JSON mode where one exists.
	FormatJSON
)

// GenerateOptions tunes a single Generate call. The zero value is a
// deterministic free-text completion with the provider's token limit.
type GenerateOptions struct {
	// System is sent as the system instruction when set.
	System string

	MaxTokens   int
	Temperature float64

	// StopWords end generation when produced.
	StopWords []string

	Format OutputFormat
}
