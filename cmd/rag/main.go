package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/ragengine/internal/cli"
	"github.com/cloo-solutions/ragengine/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rag",
		Short: "RAG engine CLI - ingest documents and ask questions about them",
		Long: `rag talks to a running ragd server.

Environment variables:
  RAG_API_URL     API base URL (default: http://localhost:8080)
  RAG_API_TOKEN   Bearer token, when the server requires one`,
		Version: version,
	}

	rootCmd.PersistentFlags().AddFlagSet(cli.ClientFlags())

	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.DocumentsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
