package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloo-solutions/ragengine/internal/cli"
	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Result string `json:"result"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the ingested documents",
		Long:  "Runs the document search tool and prints the passages the assistant would see.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runSearch(cmd.Context(), client, args[0], cli.BoolFlag(cmd, cli.FlagOutput), cmd.OutOrStdout())
		},
	}

	return cmd
}

func runSearch(ctx context.Context, client *APIClient, query string, outputJSON bool, out io.Writer) error {
	resp, err := client.Post(ctx, "/search", SearchRequest{Query: query})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintln(out, searchResp.Result)
	return nil
}
