package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

func TestDedupCmd_ForcesDedupOn(t *testing.T) {
	env := setupTestEnv(t)
	env.settings.settings.Dedup.Enabled = false
	env.pipeline.result = &domain.PipelineResult{
		Rendered: "Functional Requirements:\n1. Exporter les rapports.\n",
		Dedup:    domain.DedupStats{Total: 3, Candidates: 1, Verified: 1, Confirmed: 1},
	}

	stdout, stderr, err := execute(t, "dedup", "requirements.txt")

	require.NoError(t, err)
	assert.True(t, env.built.Dedup.Enabled)
	assert.Equal(t, "requirements.txt", env.pipeline.dedupIn)
	assert.Equal(t, env.pipeline.result.Rendered, stdout)
	assert.Contains(t, stderr, "Deduplicated requirements.txt")
	assert.Contains(t, stderr, "Duplicates removed:          1")
}

func TestDedupCmd_OutputAndFormat(t *testing.T) {
	env := setupTestEnv(t)
	env.pipeline.result = &domain.PipelineResult{OutputPath: "out.yaml"}

	stdout, _, err := execute(t, "dedup", "in.txt", "-o", "out.yaml", "--format", "yaml")

	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, "out.yaml", env.pipeline.lastReq.OutputPath)
	assert.Equal(t, domain.ReportFormatYAML, env.pipeline.lastReq.Format)
}

func TestDedupCmd_DegradedIsReported(t *testing.T) {
	env := setupTestEnv(t)
	env.pipeline.result = &domain.PipelineResult{Dedup: domain.DedupStats{Total: 2, Degraded: true}}

	_, stderr, err := execute(t, "dedup", "in.txt")

	require.NoError(t, err)
	assert.Contains(t, stderr, "Dedup skipped: embeddings unavailable")
}

func TestDedupCmd_ExplainsMissingEmbedding(t *testing.T) {
	env := setupTestEnv(t)
	env.pipeline.err = domain.ErrEmbeddingUnavailable

	_, _, err := execute(t, "dedup", "in.txt")

	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "reqdistill settings embedding")
}
