package driving

import (
	"context"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// ExtractionService turns units into raw generation results.
type ExtractionService interface {
	// Extract returns one result per unit, aligned with units.
	// Per-unit failures are reported in the report, not as an error.
	Extract(ctx context.Context, units []domain.Unit) (*domain.ExtractionReport, error)
}

// DedupService removes semantically duplicate requirements.
type DedupService interface {
	// Deduplicate processes a single category.
	Deduplicate(ctx context.Context, items []domain.Requirement) (*domain.DedupResult, error)

	// DeduplicateList processes each category independently.
	DeduplicateList(ctx context.Context, list domain.RequirementList) (domain.RequirementList, domain.DedupStats, error)
}

// PipelineService runs the end-to-end distillation.
type PipelineService interface {
	// Run distils one document into a requirement list.
	Run(ctx context.Context, req domain.PipelineRequest) (*domain.PipelineResult, error)

	// DedupFile deduplicates an already rendered requirements file.
	DedupFile(ctx context.Context, inPath, outPath string, format domain.ReportFormat) (*domain.PipelineResult, error)

	// Chunk splits a document into units without extracting.
	Chunk(ctx context.Context, path string) ([]domain.Unit, error)
}
