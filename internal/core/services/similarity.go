package services

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// SimilarityIndex embeds requirement texts and proposes candidate
// duplicate pairs by cosine similarity.
type SimilarityIndex struct {
	embedder  driven.EmbeddingService
	threshold float64
}

// NewSimilarityIndex creates a similarity index. Pairs need a similarity
// strictly above threshold to become candidates.
func NewSimilarityIndex(embedder driven.EmbeddingService, threshold float64) *SimilarityIndex {
	if threshold <= 0 {
		threshold = domain.DefaultCandidateThreshold
	}
	return &SimilarityIndex{embedder: embedder, threshold: threshold}
}

// Threshold returns the candidate threshold.
func (s *SimilarityIndex) Threshold() float64 {
	return s.threshold
}

// Embed returns one vector per text, computed in a single batch.
func (s *SimilarityIndex) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}
	return vectors, nil
}

// Candidates embeds texts and returns the pairs (i, j), i < j, whose
// similarity exceeds the threshold, ordered by i then j.
func (s *SimilarityIndex) Candidates(ctx context.Context, texts []string) ([]domain.CandidatePair, error) {
	vectors, err := s.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	return CandidatePairs(vectors, s.threshold), nil
}

// CandidatePairs compares every pair of vectors once and keeps those with
// cosine similarity strictly above threshold.
func CandidatePairs(vectors [][]float32, threshold float64) []domain.CandidatePair {
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = norm(v)
	}

	var pairs []domain.CandidatePair
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sim := cosine(vectors[i], vectors[j], norms[i], norms[j])
			if sim > threshold {
				pairs = append(pairs, domain.CandidatePair{I: i, J: j, Similarity: sim})
			}
		}
	}
	return pairs
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero vectors and vectors of different length score 0.
func CosineSimilarity(a, b []float32) float64 {
	return cosine(a, b, norm(a), norm(b))
}

func cosine(a, b []float32, na, nb float64) float64 {
	if len(a) != len(b) || na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for k := range a {
		dot += float64(a[k]) * float64(b[k])
	}
	return dot / (na * nb)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
