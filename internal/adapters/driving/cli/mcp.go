package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqdistill/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose reqdistill to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the distillation tools over MCP",
	Long: `Serve distill_document and deduplicate_requirements as MCP tools,
with past runs readable as reqdistill://runs.

The server speaks JSON-RPC on stdin/stdout unless --http is given, in
which case it listens for streamable HTTP on that address.

  reqdistill mcp serve
  reqdistill mcp serve --http localhost:8080

To register it with a desktop assistant, point the client's server
command at this binary with the arguments "mcp serve".`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().String("http", "", "listen address for HTTP transport, e.g. localhost:8080")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return err
	}

	settings, err := currentSettings()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	rt, err := buildRuntime(settings)
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := mcp.NewServer(&mcp.Ports{
		Pipeline: rt.Pipeline,
		Dedup:    rt.Dedup,
		Runs:     runStore,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if addr == "" {
		return server.Run(cmd.Context())
	}
	// stdout stays free for piping; the address goes to stderr.
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
