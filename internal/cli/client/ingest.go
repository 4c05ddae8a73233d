package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloo-solutions/ragengine/internal/cli"
	"github.com/spf13/cobra"
)

// IngestOutcome is the per-file result printed by rag ingest.
type IngestOutcome struct {
	File  string `json:"file"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Upload files for ingestion",
		Long: `Uploads each file to the ingestion endpoint. PDF files are converted to
text on the server; .txt, .md and .json files are read verbatim.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), client, args, cli.BoolFlag(cmd, cli.FlagOutput), cmd.OutOrStdout())
		},
	}

	return cmd
}

func runIngest(ctx context.Context, client *APIClient, files []string, outputJSON bool, out io.Writer) error {
	outcomes := make([]IngestOutcome, 0, len(files))
	failed := 0

	for _, file := range files {
		outcome := IngestOutcome{File: file}
		result, err := client.Upload(ctx, file, nil)
		if err != nil {
			outcome.Error = err.Error()
			failed++
		} else {
			outcome.Count = result.Count
		}
		outcomes = append(outcomes, outcome)

		if !outputJSON {
			if outcome.Error != "" {
				fmt.Fprintf(out, "✗ %s: %s\n", file, outcome.Error)
			} else {
				fmt.Fprintf(out, "✓ %s: %d chunks stored\n", file, outcome.Count)
			}
		}
	}

	if outputJSON {
		output, _ := json.MarshalIndent(outcomes, "", "  ")
		fmt.Fprintln(out, string(output))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}
