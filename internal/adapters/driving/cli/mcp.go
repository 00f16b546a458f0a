package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refshelf/internal/adapters/driving/mcp"
	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can scan
directories, search references, explore tag networks and fix tags.

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead. With --watch the watched directory is ingested in
the background while the server runs.

Examples:
  refshelf mcp serve
  refshelf mcp serve --watch
  refshelf mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "refshelf": {
        "command": "/path/to/refshelf",
        "args": ["mcp", "serve", "--watch"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("watch", false, "watch the configured directory while serving")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Catalog: catalogService,
		Ingest:  ingestor,
		Relink:  relinkService,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if watch {
		if err := requireIngestor(); err != nil {
			return err
		}
		go func() {
			// stdout belongs to the protocol, so outcomes go to the log only.
			err := runPipeline(ctx, watchRoot, false, pipelineHooks{
				processed: func(r domain.ProcessResult) {
					logger.Info("%s %s", r.Status, r.Path)
				},
			})
			if err != nil {
				logger.Error("background watch stopped: %v", err)
			}
		}()
	}

	if port > 0 {
		return server.RunHTTP(ctx, fmt.Sprintf(":%d", port))
	}
	return server.Run(ctx)
}
