package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

var errBoom = errors.New("boom")

// mockLLMService answers Generate through a per-prompt function.
type mockLLMService struct {
	generate func(ctx context.Context, prompt string) (string, error)
	calls    atomic.Int64

	mu       sync.Mutex
	lastOpts driven.GenerateOptions
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastOpts = opts
	m.mu.Unlock()
	if m.generate == nil {
		return "", nil
	}
	return m.generate(ctx, prompt)
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

// mockEmbeddingService returns fixed vectors keyed by text.
type mockEmbeddingService struct {
	vectors map[string][]float32
	err     error
	batches atomic.Int64
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batches.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := m.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockClassifier returns entailment scores keyed by "premise|hypothesis".
type mockClassifier struct {
	mu     sync.Mutex
	scores map[string]float64
	fail   map[string]bool
	calls  []string
}

func (m *mockClassifier) Classify(_ context.Context, premise, hypothesis string) (domain.NLIScores, error) {
	key := premise + "|" + hypothesis
	m.mu.Lock()
	m.calls = append(m.calls, key)
	m.mu.Unlock()
	if m.fail[key] {
		return domain.NLIScores{}, errBoom
	}
	e := m.scores[key]
	return domain.NLIScores{Entailment: e, Neutral: 1 - e}, nil
}

func (m *mockClassifier) ModelName() string { return "mock-nli" }

// stuckClassifier blocks until release is closed, ignoring its context.
type stuckClassifier struct {
	release chan struct{}
}

func (s stuckClassifier) Classify(context.Context, string, string) (domain.NLIScores, error) {
	<-s.release
	return domain.NLIScores{Entailment: 1}, nil
}

func (stuckClassifier) ModelName() string { return "stuck-nli" }

func (m *mockClassifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockReader serves documents from a map.
type mockReader struct {
	docs map[string]string
}

func (m *mockReader) Read(_ context.Context, path string) (*domain.Document, error) {
	content, ok := m.docs[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &domain.Document{ID: path, URI: path, Content: content}, nil
}

// mockWriter keeps written files in memory.
type mockWriter struct {
	mu    sync.Mutex
	files map[string]string
}

func newMockWriter() *mockWriter {
	return &mockWriter{files: make(map[string]string)}
}

func (m *mockWriter) Encode(format domain.ReportFormat, list domain.RequirementList) ([]byte, error) {
	return []byte(string(format) + ":" + strings.Join(list.Texts(domain.CategoryFunctional), ",")), nil
}

func (m *mockWriter) WriteFile(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = string(data)
	return nil
}

// unitsOf builds units with hashes derived from their text.
func unitsOf(texts ...string) []domain.Unit {
	units := make([]domain.Unit, len(texts))
	for i, t := range texts {
		units[i] = domain.Unit{Index: i, Text: t, Hash: hexOf(t)}
	}
	return units
}

func hexOf(s string) string {
	const digits = "0123456789abcdef"
	var b strings.Builder
	for _, c := range []byte(s) {
		b.WriteByte(digits[c>>4])
		b.WriteByte(digits[c&0x0f])
	}
	return b.String()
}

func reqs(category domain.Category, texts ...string) []domain.Requirement {
	out := make([]domain.Requirement, len(texts))
	for i, t := range texts {
		out[i] = domain.Requirement{Text: t, Category: category, Origin: i}
	}
	return out
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rawPrompts makes the extraction prompt equal to the unit text.
type rawPrompts struct{}

func (rawPrompts) Load(_ string) (string, error) { return "%s", nil }

func (rawPrompts) Reload() {}
