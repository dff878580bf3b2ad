package mcp

import (
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driving"
)

// Ports aggregates the services required by the MCP server.
type Ports struct {
	// Pipeline runs document distillation.
	Pipeline driving.PipelineService

	// Dedup deduplicates requirement lists. Optional; without it the
	// deduplicate_requirements tool returns its input unchanged.
	Dedup driving.DedupService

	// Runs exposes the run history as a resource. Optional.
	Runs driven.RunStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	return nil
}
