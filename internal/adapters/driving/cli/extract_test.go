package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

func sampleResult() *domain.PipelineResult {
	var list domain.RequirementList
	list.Append(
		domain.Requirement{Text: "Le système doit exporter les rapports en PDF.", Category: domain.CategoryFunctional},
		domain.Requirement{Text: "L'application doit être disponible 99,9 % du temps.", Category: domain.CategoryNonFunctional},
	)
	return &domain.PipelineResult{
		RunID:        "run-1",
		Units:        5,
		Requirements: list,
		Rendered:     "Functional Requirements:\n1. Le système doit exporter les rapports en PDF.\n",
		Extraction: &domain.ExtractionReport{
			CacheHits: 2,
			Failures:  []domain.UnitFailure{{Index: 3}},
		},
		Dedup: domain.DedupStats{Total: 4, Candidates: 3, Verified: 3, Confirmed: 2},
	}
}

func TestExtractCmd_Use(t *testing.T) {
	assert.Equal(t, "extract <document>", extractCmd.Use)
}

func TestExtractCmd_PrintsListAndSummary(t *testing.T) {
	env := setupTestEnv(t)
	env.pipeline.result = sampleResult()

	stdout, stderr, err := execute(t, "extract", "cahier.docx")

	require.NoError(t, err)
	assert.Equal(t, env.pipeline.result.Rendered, stdout)
	assert.Contains(t, stderr, "cahier.docx: 5 units (2 cached)")
	assert.Contains(t, stderr, "Duplicates removed:          2 (3 candidate pairs, 3 verified)")
	assert.Contains(t, stderr, "Failed units: 1 [3]")

	assert.Equal(t, "cahier.docx", env.pipeline.lastReq.DocumentPath)
	assert.Equal(t, domain.ReportFormatText, env.pipeline.lastReq.Format)
	assert.False(t, env.pipeline.lastReq.SkipDedup)
}

func TestExtractCmd_WritesToOutputFile(t *testing.T) {
	env := setupTestEnv(t)
	result := sampleResult()
	result.OutputPath = "reqs.json"
	env.pipeline.result = result

	stdout, stderr, err := execute(t, "extract", "spec.pdf", "-o", "reqs.json", "--format", "json", "--raw-output", "raw.txt")

	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Output: reqs.json")
	assert.Equal(t, "reqs.json", env.pipeline.lastReq.OutputPath)
	assert.Equal(t, "raw.txt", env.pipeline.lastReq.RawOutputPath)
	assert.Equal(t, domain.ReportFormatJSON, env.pipeline.lastReq.Format)
}

func TestExtractCmd_Overrides(t *testing.T) {
	env := setupTestEnv(t)

	_, _, err := execute(t, "extract", "notes.md", "--max-size", "800", "--concurrency", "4", "--no-dedup")

	require.NoError(t, err)
	require.NotNil(t, env.built)
	assert.Equal(t, 800, env.built.Chunker.MaxSize)
	assert.Equal(t, 4, env.built.Extraction.Concurrency)
	assert.False(t, env.built.Dedup.Enabled)
	assert.True(t, env.pipeline.lastReq.SkipDedup)
}

func TestExtractCmd_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown format", []string{"extract", "a.txt", "--format", "xml", "-o", "out"}, "unknown format"},
		{"format without output", []string{"extract", "a.txt", "--format", "yaml"}, "--format requires --output"},
		{"missing document", []string{"extract"}, "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)

			_, _, err := execute(t, tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, env.pipeline.runs)
		})
	}
}

func TestExtractCmd_InvalidSettings(t *testing.T) {
	env := setupTestEnv(t)
	env.settings.settings.Dedup.Concurrency = 0

	_, _, err := execute(t, "extract", "a.txt")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractCmd_ExplainsMissingLLM(t *testing.T) {
	env := setupTestEnv(t)
	env.pipeline.err = domain.ErrLLMUnavailable

	_, _, err := execute(t, "extract", "a.txt")

	require.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "reqdistill settings llm")
}

func TestExtractCmd_NoRuntime(t *testing.T) {
	setupTestEnv(t)
	newRuntime = nil

	_, _, err := execute(t, "extract", "a.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline not configured")
}
