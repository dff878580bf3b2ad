package driven

import (
	"context"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// ReportWriter encodes and persists pipeline artifacts.
type ReportWriter interface {
	// Encode renders list in the given format.
	Encode(format domain.ReportFormat, list domain.RequirementList) ([]byte, error)

	// WriteFile stores data at path, replacing any existing file.
	WriteFile(ctx context.Context, path string, data []byte) error
}

// RunStore records pipeline runs.
type RunStore interface {
	// SaveRun stores a run summary.
	SaveRun(ctx context.Context, run *domain.Run) error

	// ListRuns returns the most recent runs first, at most limit.
	// A non-positive limit returns every run.
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}
