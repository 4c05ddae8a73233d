package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloo-solutions/ragengine/internal/config"
	"github.com/cloo-solutions/ragengine/internal/mcp"
	"github.com/spf13/cobra"
)

// MCPCmd returns the mcp command
func MCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the document search tool over MCP",
		Long: `Runs a Model Context Protocol server on stdio exposing the searchFiles tool,
so external agents can query the ingested documents.

Configure it in an MCP client as:
  {"command": "ragd", "args": ["mcp"]}`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	defer initTelemetry(cfg)()

	c, err := buildComponents(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer c.Close()

	server := mcp.NewServer(c.retrieval)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("MCP server starting on stdio...")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcp.Serve(server)
	}()

	select {
	case <-sigCtx.Done():
		log.Println("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
