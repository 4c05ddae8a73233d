package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/cloo-solutions/ragengine/internal/cli"
	"github.com/spf13/cobra"
)

// Document is one ingested file as listed by the API.
type Document struct {
	Filename     string `json:"filename"`
	ChunkCount   int    `json:"chunk_count"`
	LastIngested string `json:"last_ingested"`
}

// DocumentList represents the list API response.
type DocumentList struct {
	Items      []Document `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}

// DeletedDocument represents the delete API response.
type DeletedDocument struct {
	Filename string `json:"filename"`
	Deleted  int64  `json:"deleted"`
}

// DocumentsCmd creates the documents command group.
func DocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage ingested documents",
	}

	cmd.AddCommand(documentsListCmd())
	cmd.AddCommand(documentsDeleteCmd())

	return cmd
}

func documentsListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ingested files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runDocumentsList(cmd.Context(), client, limit, cursor, cli.BoolFlag(cmd, cli.FlagOutput), cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of files")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func documentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <filename>",
		Short: "Delete every chunk of an ingested file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runDocumentsDelete(cmd.Context(), client, args[0], cli.BoolFlag(cmd, cli.FlagOutput), cmd.OutOrStdout())
		},
	}
}

func runDocumentsList(ctx context.Context, client *APIClient, limit int, cursor string, outputJSON bool, out io.Writer) error {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	path := "/documents"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var list DocumentList
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return fmt.Errorf("failed to parse documents: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(list, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(list.Items) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return nil
	}

	for _, d := range list.Items {
		fmt.Fprintf(out, "%-40s %5d chunks  %s\n", d.Filename, d.ChunkCount, d.LastIngested)
	}
	if list.HasMore && list.NextCursor != "" {
		fmt.Fprintf(out, "\n%s\n", strings.Repeat("-", 40))
		fmt.Fprintf(out, "More documents available. Use --cursor %s\n", list.NextCursor)
	}

	return nil
}

func runDocumentsDelete(ctx context.Context, client *APIClient, filename string, outputJSON bool, out io.Writer) error {
	resp, err := client.Delete(ctx, "/documents/"+url.PathEscape(filename))
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	var deleted DeletedDocument
	if err := json.Unmarshal(resp.Data, &deleted); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(deleted, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "Deleted %s (%d chunks)\n", deleted.Filename, deleted.Deleted)
	return nil
}
