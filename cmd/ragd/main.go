package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/ragengine/internal/cli/daemon"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ragd",
		Short: "RAG engine daemon",
		Long:  "RAG engine daemon for serving the chat API, the MCP search tool and the directory watcher",
	}

	rootCmd.AddCommand(daemon.ServeCmd())
	rootCmd.AddCommand(daemon.MCPCmd())
	rootCmd.AddCommand(daemon.WatchCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
