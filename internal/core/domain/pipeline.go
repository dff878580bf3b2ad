package domain

import "time"

// ReportFormat selects the encoding of the output artifact.
type ReportFormat string

// Supported report formats.
const (
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
	ReportFormatYAML ReportFormat = "yaml"
)

// IsValid returns true if the format is recognised.
func (f ReportFormat) IsValid() bool {
	switch f {
	case ReportFormatText, ReportFormatJSON, ReportFormatYAML:
		return true
	default:
		return false
	}
}

// PipelineRequest describes one distillation run.
type PipelineRequest struct {
	// DocumentPath is the source document.
	DocumentPath string

	// OutputPath is where the report is written. Empty means no file.
	OutputPath string

	// RawOutputPath optionally receives the concatenated raw extraction results.
	RawOutputPath string

	// Format is the report encoding. Defaults to text.
	Format ReportFormat

	// SkipDedup disables the dedup stage.
	SkipDedup bool
}

// PipelineResult is the outcome of a distillation run.
type PipelineResult struct {
	RunID        string
	Units        int
	Extraction   *ExtractionReport
	Requirements RequirementList
	Dedup        DedupStats
	Rendered     string
	OutputPath   string
}

// Run is a persisted summary of a pipeline run.
type Run struct {
	ID            string
	Document      string
	StartedAt     time.Time
	Duration      time.Duration
	Units         int
	FailedUnits   []int
	CacheHits     int
	Functional    int
	NonFunctional int
	Removed       int
	Output        string
}
