// Package ollama embeds requirement texts with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/reqdistill/internal/adapters/driven/embedding/batch"
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL   = ollamaapi.DefaultBaseURL
	DefaultModel     = "paraphrase-multilingual"
	DefaultTimeout   = 60 * time.Second
	DefaultBatchSize = 64
)

// Config configures the adapter. Zero fields take the package defaults.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// BatchSize caps the texts sent per /api/embed request.
	BatchSize int
}

// EmbeddingService calls /api/embed.
type EmbeddingService struct {
	api       *ollamaapi.Client
	model     string
	batchSize int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbeddingService creates the adapter.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &EmbeddingService{
		api:       ollamaapi.New(cfg.BaseURL, cfg.Timeout),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
	}
}

// EmbedBatch implements driven.EmbeddingService.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return batch.Embed(ctx, texts, s.batchSize, s.embed)
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var resp embedResponse
	if err := s.api.Post(ctx, "/api/embed", embedRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping fails when the server is down or the model has not been pulled.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.RequireModel(ctx, s.model)
}

func (s *EmbeddingService) Close() error {
	return nil
}
