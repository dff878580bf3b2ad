package driven

import "context"

// EmbeddingService maps requirement texts to vectors for the similarity
// index. Dedup embeds each category with one EmbedBatch call.
type EmbeddingService interface {
	// EmbedBatch returns one vector per text, aligned with texts. Every
	// vector has the same length. Adapters split the input into requests
	// the provider accepts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	ModelName() string

	// Ping checks that the provider answers and the model is usable.
	Ping(ctx context.Context) error

	Close() error
}
