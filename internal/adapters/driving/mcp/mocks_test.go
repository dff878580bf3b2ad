package mcp

import (
	"context"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// mockPipelineService is a mock implementation of driving.PipelineService.
type mockPipelineService struct {
	result  *domain.PipelineResult
	err     error
	lastReq domain.PipelineRequest
}

func (m *mockPipelineService) Run(_ context.Context, req domain.PipelineRequest) (*domain.PipelineResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockPipelineService) DedupFile(
	_ context.Context,
	_, _ string,
	_ domain.ReportFormat,
) (*domain.PipelineResult, error) {
	return m.result, m.err
}

func (m *mockPipelineService) Chunk(_ context.Context, _ string) ([]domain.Unit, error) {
	return nil, m.err
}

// mockDedupService is a mock implementation of driving.DedupService.
// It drops every item whose text it has already seen in the category.
type mockDedupService struct {
	err error
}

func (m *mockDedupService) Deduplicate(_ context.Context, items []domain.Requirement) (*domain.DedupResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	seen := make(map[string]bool)
	result := &domain.DedupResult{}
	for i, r := range items {
		if seen[r.Text] {
			result.Removed = append(result.Removed, domain.Removal{Index: i})
			continue
		}
		seen[r.Text] = true
		result.Kept = append(result.Kept, r)
	}
	result.Stats = domain.DedupStats{
		Total:      len(items),
		Candidates: len(result.Removed),
		Confirmed:  len(result.Removed),
	}
	return result, nil
}

func (m *mockDedupService) DeduplicateList(
	ctx context.Context,
	list domain.RequirementList,
) (domain.RequirementList, domain.DedupStats, error) {
	var out domain.RequirementList
	var stats domain.DedupStats
	for _, c := range domain.AllCategories() {
		res, err := m.Deduplicate(ctx, list.Items(c))
		if err != nil {
			return domain.RequirementList{}, domain.DedupStats{}, err
		}
		out.Set(c, res.Kept)
		stats.Add(res.Stats)
	}
	return out, stats, nil
}

// mockRunStore is a mock implementation of driven.RunStore.
type mockRunStore struct {
	runs      []domain.Run
	err       error
	lastLimit int
}

func (m *mockRunStore) SaveRun(_ context.Context, run *domain.Run) error {
	m.runs = append(m.runs, *run)
	return m.err
}

func (m *mockRunStore) ListRuns(_ context.Context, limit int) ([]domain.Run, error) {
	m.lastLimit = limit
	return m.runs, m.err
}
