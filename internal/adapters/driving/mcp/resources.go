package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme = "reqdistill://"

	// recentRuns caps the run history resource.
	recentRuns = 20
)

// runInfo is the JSON shape of one run in the history resource.
type runInfo struct {
	ID            string    `json:"id"`
	Document      string    `json:"document"`
	StartedAt     time.Time `json:"started_at"`
	DurationMS    int64     `json:"duration_ms"`
	Units         int       `json:"units"`
	FailedUnits   []int     `json:"failed_units,omitempty"`
	Functional    int       `json:"functional"`
	NonFunctional int       `json:"non_functional"`
	Removed       int       `json:"removed"`
	Output        string    `json:"output,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Most recent distillation runs",
		MIMEType:    "application/json",
	}, s.handleRunsResource)
}

// handleRunsResource returns the recent run history.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := []runInfo{}

	if s.ports.Runs != nil {
		runs, err := s.ports.Runs.ListRuns(ctx, recentRuns)
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		for i := range runs {
			r := &runs[i]
			infos = append(infos, runInfo{
				ID:            r.ID,
				Document:      r.Document,
				StartedAt:     r.StartedAt,
				DurationMS:    r.Duration.Milliseconds(),
				Units:         r.Units,
				FailedUnits:   r.FailedUnits,
				Functional:    r.Functional,
				NonFunctional: r.NonFunctional,
				Removed:       r.Removed,
				Output:        r.Output,
			})
		}
	}

	data, err := json.Marshal(infos)
	if err != nil {
		return nil, fmt.Errorf("marshalling runs: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
