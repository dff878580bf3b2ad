// Package mcp provides an MCP (Model Context Protocol) server adapter for reqdistill.
// It lets AI assistants distil documents into requirement lists and
// deduplicate requirement lists they already hold.
package mcp

import "errors"

// ErrMissingPipelineService is returned when the pipeline service is not provided.
var ErrMissingPipelineService = errors.New("mcp: pipeline service is required")
