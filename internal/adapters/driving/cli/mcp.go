package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Expose bankdoc to AI assistants through the Model Context Protocol.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serves the query, ingest_text, stats and search_entities tools and the
bankdoc://documents resources. Stdio is used unless --port is given.

With --port the server speaks streamable HTTP at / and reports index
statistics as JSON at /healthz.

Examples:
  bankdoc mcp serve
  bankdoc mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "bankdoc": {
        "command": "/path/to/bankdoc",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Pipeline: pipelineService,
		Document: documentService,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mcpPort > 0 {
		// Stdout stays clean in stdio mode; only HTTP mode announces itself.
		cmd.Printf("MCP server listening on http://localhost:%d\n", mcpPort)
		return server.RunHTTP(ctx, fmt.Sprintf(":%d", mcpPort))
	}
	return server.Run(ctx)
}
