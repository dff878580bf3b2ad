package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driving"
	"github.com/custodia-labs/reqdistill/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineService = (*PipelineService)(nil)

// PipelineService runs read, chunk, extract, merge, dedup and render.
type PipelineService struct {
	reader     driven.DocumentReader
	splitter   driven.UnitSplitter
	codec      driven.ListCodec
	extraction driving.ExtractionService
	dedup      driving.DedupService
	writer     driven.ReportWriter
	runs       driven.RunStore
	now        func() time.Time
}

// PipelineDeps holds the collaborators of a pipeline.
// Dedup and Runs are optional.
type PipelineDeps struct {
	Reader     driven.DocumentReader
	Splitter   driven.UnitSplitter
	Codec      driven.ListCodec
	Extraction driving.ExtractionService
	Dedup      driving.DedupService
	Writer     driven.ReportWriter
	Runs       driven.RunStore
}

// NewPipelineService creates a pipeline from its collaborators.
func NewPipelineService(deps PipelineDeps) *PipelineService {
	return &PipelineService{
		reader:     deps.Reader,
		splitter:   deps.Splitter,
		codec:      deps.Codec,
		extraction: deps.Extraction,
		dedup:      deps.Dedup,
		writer:     deps.Writer,
		runs:       deps.Runs,
		now:        time.Now,
	}
}

// Run distils one document. Unit failures do not fail the run; they are
// listed in the extraction report and in the recorded run.
func (s *PipelineService) Run(ctx context.Context, req domain.PipelineRequest) (*domain.PipelineResult, error) {
	if req.DocumentPath == "" {
		return nil, fmt.Errorf("%w: document path is required", domain.ErrInvalidInput)
	}
	format, err := resolveFormat(req.Format)
	if err != nil {
		return nil, err
	}
	if s.extraction == nil {
		return nil, domain.ErrLLMUnavailable
	}

	started := s.now()
	runID := uuid.New().String()
	defer logger.Stage("Run " + runID)()

	units, err := s.Chunk(ctx, req.DocumentPath)
	if err != nil {
		return nil, err
	}

	done := logger.Stage("Extraction")
	report, err := s.extraction.Extract(ctx, units)
	done()
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if report.HasFailures() {
		logger.Error("%d of %d units failed: %v", len(report.Failures), len(units), report.FailedIndices())
	}

	if req.RawOutputPath != "" {
		if err := s.write(ctx, req.RawOutputPath, []byte(joinResults(report.Results))); err != nil {
			return nil, fmt.Errorf("write raw output: %w", err)
		}
	}

	list := s.codec.Merge(report.Results)
	logger.Info("Merged %d functional and %d non-functional requirements",
		len(list.Functional), len(list.NonFunctional))

	result := &domain.PipelineResult{
		RunID:      runID,
		Units:      len(units),
		Extraction: report,
	}

	if !req.SkipDedup && s.dedup != nil {
		deduped, stats, err := s.dedup.DeduplicateList(ctx, list)
		if err != nil {
			return nil, fmt.Errorf("dedup: %w", err)
		}
		list = deduped
		result.Dedup = stats
	}

	if err := s.finish(ctx, result, list, req.OutputPath, format); err != nil {
		return nil, err
	}

	s.record(ctx, &domain.Run{
		ID:            runID,
		Document:      req.DocumentPath,
		StartedAt:     started,
		Duration:      s.now().Sub(started),
		Units:         len(units),
		FailedUnits:   report.FailedIndices(),
		CacheHits:     report.CacheHits,
		Functional:    len(list.Functional),
		NonFunctional: len(list.NonFunctional),
		Removed:       result.Dedup.Confirmed,
		Output:        req.OutputPath,
	})

	return result, nil
}

// DedupFile deduplicates an already rendered requirements file.
func (s *PipelineService) DedupFile(
	ctx context.Context,
	inPath, outPath string,
	format domain.ReportFormat,
) (*domain.PipelineResult, error) {
	if inPath == "" {
		return nil, fmt.Errorf("%w: input path is required", domain.ErrInvalidInput)
	}
	resolved, err := resolveFormat(format)
	if err != nil {
		return nil, err
	}
	if s.dedup == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	doc, err := s.read(ctx, inPath)
	if err != nil {
		return nil, err
	}

	list := s.codec.Parse(doc.Content, domain.NoOrigin)
	logger.Info("Parsed %d functional and %d non-functional requirements from %s",
		len(list.Functional), len(list.NonFunctional), inPath)

	deduped, stats, err := s.dedup.DeduplicateList(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("dedup: %w", err)
	}

	result := &domain.PipelineResult{
		RunID: uuid.New().String(),
		Dedup: stats,
	}
	if err := s.finish(ctx, result, deduped, outPath, resolved); err != nil {
		return nil, err
	}
	return result, nil
}

// Chunk reads a document and splits it into units.
func (s *PipelineService) Chunk(ctx context.Context, path string) ([]domain.Unit, error) {
	doc, err := s.read(ctx, path)
	if err != nil {
		return nil, err
	}
	units := s.splitter.Split(doc.Content)
	logger.Info("Split %s into %d units", path, len(units))
	return units, nil
}

func (s *PipelineService) read(ctx context.Context, path string) (*domain.Document, error) {
	if s.reader == nil {
		return nil, fmt.Errorf("%w: no document reader", domain.ErrUnreadableDocument)
	}
	doc, err := s.reader.Read(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrUnreadableDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnreadableDocument, path, err)
	}
	return doc, nil
}

// finish renders the list and writes it to outPath when one is given.
func (s *PipelineService) finish(
	ctx context.Context,
	result *domain.PipelineResult,
	list domain.RequirementList,
	outPath string,
	format domain.ReportFormat,
) error {
	result.Requirements = list
	result.Rendered = s.codec.Render(list)

	if outPath == "" {
		return nil
	}

	data := []byte(result.Rendered)
	if format != domain.ReportFormatText {
		if s.writer == nil {
			return fmt.Errorf("%w: no writer for format %s", domain.ErrUnsupportedType, format)
		}
		encoded, err := s.writer.Encode(format, list)
		if err != nil {
			return fmt.Errorf("encode %s: %w", format, err)
		}
		data = encoded
	}
	if err := s.write(ctx, outPath, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	result.OutputPath = outPath
	logger.Info("Wrote %s", outPath)
	return nil
}

func (s *PipelineService) write(ctx context.Context, path string, data []byte) error {
	if s.writer == nil {
		return fmt.Errorf("%w: no report writer", domain.ErrInvalidInput)
	}
	return s.writer.WriteFile(ctx, path, data)
}

// record saves a run summary. History is best effort.
func (s *PipelineService) record(ctx context.Context, run *domain.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(ctx, run); err != nil {
		logger.Warn("failed to record run %s: %v", run.ID, err)
	}
}

func resolveFormat(format domain.ReportFormat) (domain.ReportFormat, error) {
	if format == "" {
		return domain.ReportFormatText, nil
	}
	if !format.IsValid() {
		return "", fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, format)
	}
	return format, nil
}

// joinResults concatenates the non-empty per-unit results in unit order.
func joinResults(results []string) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r != domain.FailedResult {
			parts = append(parts, r)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}
