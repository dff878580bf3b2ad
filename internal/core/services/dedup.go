package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driving"
	"github.com/custodia-labs/reqdistill/internal/logger"
)

// Ensure DedupService implements the interface.
var _ driving.DedupService = (*DedupService)(nil)

// DedupService removes semantically duplicate requirements within a category.
type DedupService struct {
	index       *SimilarityIndex
	verifier    *EntailmentVerifier
	concurrency int
}

// NewDedupService creates a dedup controller.
func NewDedupService(index *SimilarityIndex, verifier *EntailmentVerifier, concurrency int) *DedupService {
	if concurrency <= 0 {
		concurrency = domain.DefaultConcurrency
	}
	return &DedupService{index: index, verifier: verifier, concurrency: concurrency}
}

// DeduplicateList deduplicates each category on its own. Requirements are
// never compared across categories.
func (s *DedupService) DeduplicateList(
	ctx context.Context,
	list domain.RequirementList,
) (domain.RequirementList, domain.DedupStats, error) {
	var out domain.RequirementList
	var stats domain.DedupStats

	for _, category := range domain.AllCategories() {
		logger.Section("Dedup: " + category.Label())
		result, err := s.Deduplicate(ctx, list.Items(category))
		if err != nil {
			return domain.RequirementList{}, stats, fmt.Errorf("dedup %s: %w", category, err)
		}
		out.Set(category, result.Kept)
		stats.Add(result.Stats)
	}
	return out, stats, nil
}

// Deduplicate runs one pass over a single category. Survivors keep their
// relative order. Collaborator failures never drop items: a failed
// embedding keeps everything and a failed classification keeps both sides.
func (s *DedupService) Deduplicate(ctx context.Context, items []domain.Requirement) (*domain.DedupResult, error) {
	start := time.Now()
	phase := domain.PhaseIdle
	result := &domain.DedupResult{Stats: domain.DedupStats{Total: len(items)}}

	if len(items) < 2 {
		result.Kept = append([]domain.Requirement(nil), items...)
		result.Stats.Duration = time.Since(start)
		return result, nil
	}

	texts := make([]string, len(items))
	for k, item := range items {
		texts[k] = item.Text
	}

	// 1. Embed
	if s.index == nil {
		return s.degraded(result, items, start, domain.ErrEmbeddingUnavailable), nil
	}
	vectors, err := s.index.Embed(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return s.degraded(result, items, start, err), nil
	}
	if err := phase.Advance(domain.PhaseEmbeddingComputed); err != nil {
		return nil, err
	}

	// 2. Candidates
	pairs := CandidatePairs(vectors, s.index.Threshold())
	result.Stats.Candidates = len(pairs)
	logger.Debug("%d items, %d candidate pairs above %.2f", len(items), len(pairs), s.index.Threshold())
	if err := phase.Advance(domain.PhaseCandidatesGenerated); err != nil {
		return nil, err
	}

	// 3. Verify
	removed, counters, err := s.verifyPairs(ctx, texts, pairs)
	if err != nil {
		return nil, err
	}
	result.Stats.Verified = int(counters.verified.Load())
	result.Stats.Skipped = int(counters.skipped.Load())
	result.Stats.ClassificationFailures = int(counters.failures.Load())
	result.Stats.Confirmed = len(removed)
	if err := phase.Advance(domain.PhasePairsVerified); err != nil {
		return nil, err
	}

	// 4. Finalize
	for k, item := range items {
		if _, gone := removed[k]; !gone {
			result.Kept = append(result.Kept, item)
		}
	}
	for _, r := range removed {
		result.Removed = append(result.Removed, r)
	}
	sort.Slice(result.Removed, func(a, b int) bool {
		return result.Removed[a].Index < result.Removed[b].Index
	})
	if err := phase.Advance(domain.PhaseFinalized); err != nil {
		return nil, err
	}

	result.Stats.Duration = time.Since(start)
	logger.Info("Dedup kept %d of %d (%d removed, %d skipped, %d classification failures) in %s",
		len(result.Kept), len(items), len(result.Removed), result.Stats.Skipped,
		result.Stats.ClassificationFailures, result.Stats.Duration.Round(time.Millisecond))
	return result, nil
}

type verifyCounters struct {
	verified atomic.Int64
	skipped  atomic.Int64
	failures atomic.Int64
}

// verifyPairs checks candidate pairs on a bounded pool. A pair touching an
// index that is already removed is skipped, both before classification and
// again when its verdict is applied.
func (s *DedupService) verifyPairs(
	ctx context.Context,
	texts []string,
	pairs []domain.CandidatePair,
) (map[int]domain.Removal, *verifyCounters, error) {
	removals := newRemovalSet()
	counters := &verifyCounters{}

	if s.verifier == nil {
		if len(pairs) > 0 {
			logger.Warn("no entailment classifier configured, %d candidate pairs kept", len(pairs))
			counters.failures.Add(int64(len(pairs)))
		}
		return removals.snapshot(), counters, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if removals.touches(pair.I, pair.J) {
				counters.skipped.Add(1)
				return nil
			}

			verdict, err := s.verifier.Verify(gctx, texts[pair.I], texts[pair.J])
			if err != nil {
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return ctx.Err()
				}
				counters.failures.Add(1)
				logger.Warn("pair (%d, %d): classification failed, keeping both: %v", pair.I, pair.J, err)
				return nil
			}
			counters.verified.Add(1)

			logger.Debug("pair (%d, %d): sim=%.3f forward=%.3f backward=%.3f",
				pair.I, pair.J, pair.Similarity, verdict.Forward, verdict.Backward)
			if !verdict.Duplicate {
				return nil
			}

			kept, dropped := KeepLonger(pair.I, pair.J, texts[pair.I], texts[pair.J])
			if !removals.tryRemove(domain.Removal{Index: dropped, KeptIndex: kept, Score: verdict.Score}) {
				counters.skipped.Add(1)
				return nil
			}
			logger.Debug("removed %d %q as duplicate of %d %q (score %.3f)",
				dropped, texts[dropped], kept, texts[kept], verdict.Score)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return removals.snapshot(), counters, nil
}

func (s *DedupService) degraded(result *domain.DedupResult, items []domain.Requirement, start time.Time, cause error) *domain.DedupResult {
	logger.Error("dedup skipped, keeping all %d items: %v", len(items), cause)
	result.Kept = append([]domain.Requirement(nil), items...)
	result.Stats.Degraded = true
	result.Stats.Duration = time.Since(start)
	return result
}

// removalSet is the shared set of dropped indices.
type removalSet struct {
	mu      sync.Mutex
	removed map[int]domain.Removal
}

func newRemovalSet() *removalSet {
	return &removalSet{removed: make(map[int]domain.Removal)}
}

// touches reports whether either index was already removed.
func (r *removalSet) touches(i, j int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, gi := r.removed[i]
	_, gj := r.removed[j]
	return gi || gj
}

// tryRemove records rem unless either side of the pair was removed first.
func (r *removalSet) tryRemove(rem domain.Removal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, gone := r.removed[rem.Index]; gone {
		return false
	}
	if _, gone := r.removed[rem.KeptIndex]; gone {
		return false
	}
	r.removed[rem.Index] = rem
	return true
}

func (r *removalSet) snapshot() map[int]domain.Removal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]domain.Removal, len(r.removed))
	for k, v := range r.removed {
		out[k] = v
	}
	return out
}
