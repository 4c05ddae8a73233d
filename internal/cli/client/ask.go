package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/ragengine/internal/api"
	"github.com/cloo-solutions/ragengine/internal/cli"
	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/spf13/cobra"
)

// ChatRequest is the body of a chat turn.
type ChatRequest struct {
	Messages []domain.UIMessage `json:"messages"`
}

// ToolCall is a tool invocation observed in the stream.
type ToolCall struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Input  json.RawMessage `json:"input,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`
}

// Answer is the assembled result of a chat turn.
type Answer struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the ingested documents",
		Long:  "Sends the question to the chat endpoint and prints the answer as it streams in.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			return runAsk(cmd.Context(), client, question, cli.BoolFlag(cmd, cli.FlagOutput), verbose, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print tool results")

	return cmd
}

func newQuestion(question string) ChatRequest {
	return ChatRequest{Messages: []domain.UIMessage{{
		Role: string(domain.RoleUser),
		Body: domain.PartList{Parts: []domain.MessagePart{{Type: domain.PartTypeText, Text: question}}},
	}}}
}

func runAsk(ctx context.Context, client *APIClient, question string, outputJSON, verbose bool, out io.Writer) error {
	var answer Answer
	var text strings.Builder
	calls := map[string]int{}

	err := client.Stream(ctx, "/api/chat", newQuestion(question), func(c api.UIChunk) error {
		switch c.Type {
		case api.ChunkTextDelta:
			text.WriteString(c.Delta)
			if !outputJSON {
				fmt.Fprint(out, c.Delta)
			}
		case api.ChunkToolInputAvailable:
			calls[c.ToolCallID] = len(answer.ToolCalls)
			answer.ToolCalls = append(answer.ToolCalls, ToolCall{ID: c.ToolCallID, Name: c.ToolName, Input: c.Input})
			if !outputJSON {
				fmt.Fprintf(out, "\n[%s %s]\n", c.ToolName, string(c.Input))
			}
		case api.ChunkToolOutputAvailable:
			if i, ok := calls[c.ToolCallID]; ok {
				answer.ToolCalls[i].Output = c.Output
			}
			if verbose && !outputJSON {
				var output string
				if json.Unmarshal(c.Output, &output) != nil {
					output = string(c.Output)
				}
				fmt.Fprintf(out, "%s\n\n", output)
			}
		case api.ChunkError:
			answer.Error = c.ErrorText
		}
		return nil
	})
	answer.Text = text.String()

	if outputJSON {
		if err != nil && answer.Error == "" {
			answer.Error = err.Error()
		}
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Fprintln(out, string(output))
	} else if answer.Text != "" {
		fmt.Fprintln(out)
	}

	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	if answer.Error != "" {
		return errors.New(answer.Error)
	}
	return nil
}
