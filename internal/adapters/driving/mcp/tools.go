package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// DistillInput is the input schema for the distill_document tool.
type DistillInput struct {
	Path       string `json:"path" jsonschema:"path of the source document (txt, md, html, docx or pdf)"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"optional file to write the requirement list to"`
	Format     string `json:"format,omitempty" jsonschema:"output file format: text, json or yaml (default text)"`
	SkipDedup  bool   `json:"skip_dedup,omitempty" jsonschema:"keep semantically duplicate requirements"`
}

// DistillOutput is the output schema for the distill_document tool.
type DistillOutput struct {
	RunID         string   `json:"run_id"`
	Units         int      `json:"units"`
	FailedUnits   []int    `json:"failed_units,omitempty"`
	Functional    []string `json:"functional"`
	NonFunctional []string `json:"non_functional"`
	Removed       int      `json:"removed"`
	OutputPath    string   `json:"output_path,omitempty"`
}

// DedupInput is the input schema for the deduplicate_requirements tool.
type DedupInput struct {
	Functional    []string `json:"functional,omitempty" jsonschema:"functional requirement statements"`
	NonFunctional []string `json:"non_functional,omitempty" jsonschema:"non-functional requirement statements"`
}

// DedupOutput is the output schema for the deduplicate_requirements tool.
type DedupOutput struct {
	Functional    []string `json:"functional"`
	NonFunctional []string `json:"non_functional"`
	Candidates    int      `json:"candidates"`
	Removed       int      `json:"removed"`
	Degraded      bool     `json:"degraded"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "distill_document",
		Description: "Extract functional and non-functional requirements from a document",
	}, s.handleDistill)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "deduplicate_requirements",
		Description: "Remove semantically duplicate requirements, keeping the longer statement of each pair",
	}, s.handleDedup)
}

// handleDistill handles the distill_document tool invocation.
func (s *Server) handleDistill(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DistillInput,
) (*mcp.CallToolResult, DistillOutput, error) {
	if input.Path == "" {
		return nil, DistillOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	result, err := s.ports.Pipeline.Run(ctx, domain.PipelineRequest{
		DocumentPath: input.Path,
		OutputPath:   input.OutputPath,
		Format:       domain.ReportFormat(input.Format),
		SkipDedup:    input.SkipDedup,
	})
	if err != nil {
		return nil, DistillOutput{}, err
	}

	output := DistillOutput{
		RunID:         result.RunID,
		Units:         result.Units,
		Functional:    result.Requirements.Texts(domain.CategoryFunctional),
		NonFunctional: result.Requirements.Texts(domain.CategoryNonFunctional),
		Removed:       result.Dedup.Confirmed,
		OutputPath:    result.OutputPath,
	}
	if result.Extraction != nil {
		output.FailedUnits = result.Extraction.FailedIndices()
	}

	return nil, output, nil
}

// handleDedup handles the deduplicate_requirements tool invocation.
func (s *Server) handleDedup(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DedupInput,
) (*mcp.CallToolResult, DedupOutput, error) {
	var list domain.RequirementList
	list.Append(toRequirements(input.Functional, domain.CategoryFunctional)...)
	list.Append(toRequirements(input.NonFunctional, domain.CategoryNonFunctional)...)

	if s.ports.Dedup == nil {
		return nil, DedupOutput{
			Functional:    list.Texts(domain.CategoryFunctional),
			NonFunctional: list.Texts(domain.CategoryNonFunctional),
			Degraded:      true,
		}, nil
	}

	deduped, stats, err := s.ports.Dedup.DeduplicateList(ctx, list)
	if err != nil {
		return nil, DedupOutput{}, err
	}

	return nil, DedupOutput{
		Functional:    deduped.Texts(domain.CategoryFunctional),
		NonFunctional: deduped.Texts(domain.CategoryNonFunctional),
		Candidates:    stats.Candidates,
		Removed:       stats.Confirmed,
		Degraded:      stats.Degraded,
	}, nil
}

func toRequirements(texts []string, category domain.Category) []domain.Requirement {
	items := make([]domain.Requirement, 0, len(texts))
	for i, text := range texts {
		items = append(items, domain.Requirement{Text: text, Category: category, Origin: i})
	}
	return items
}
