// Package driving lists what the CLI and the MCP server may ask of the
// core: run the pipeline, deduplicate a list, and manage settings.
// internal/core/services implements every interface here.
package driving
