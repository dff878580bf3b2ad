// Package openai embeds requirement texts with the OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/reqdistill/internal/adapters/driven/embedding/batch"
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/openaiapi"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = openaiapi.DefaultBaseURL
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the most inputs the API accepts per request.
	MaxBatchSize = 2048
)

// Config configures the adapter. APIKey is required; other zero fields
// take the package defaults.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// BatchSize caps the texts sent per request, at most MaxBatchSize.
	BatchSize int
}

// EmbeddingService calls the /embeddings endpoint.
type EmbeddingService struct {
	client    *openai.Client
	model     string
	batchSize int
}

// NewEmbeddingService creates the adapter.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}

	client, err := openaiapi.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &EmbeddingService{client: client, model: cfg.Model, batchSize: cfg.BatchSize}, nil
}

// EmbedBatch implements driven.EmbeddingService.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return batch.Embed(ctx, texts, s.batchSize, s.embed)
}

// embed sends one request. Vectors are placed by the index the API
// reports, which need not follow response order.
func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		return nil, openaiapi.MapError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("openai: bad embedding index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping retrieves the configured model, which checks both the key and
// that the model exists.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.GetModel(ctx, s.model); err != nil {
		return fmt.Errorf("openai: model %s: %w", s.model, openaiapi.MapError(err))
	}
	return nil
}

func (s *EmbeddingService) Close() error {
	return nil
}
