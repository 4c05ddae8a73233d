package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/telemetry"
)

const (
	DefaultAgentMaxSteps = 10
	DefaultChatTimeout   = 30 * time.Second
)

// ChatCompleter streams completions from a chat model.
type ChatCompleter interface {
	StreamCompletion(ctx context.Context, req domain.ChatRequest) (domain.CompletionStream, error)
}

// DocumentSearcher is the tool the agent calls to look up documents.
type DocumentSearcher interface {
	Search(ctx context.Context, query string) string
}

// EventType names an increment of an agent turn.
type EventType string

const (
	EventStepStart  EventType = "start-step"
	EventTextStart  EventType = "text-start"
	EventTextDelta  EventType = "text-delta"
	EventTextEnd    EventType = "text-end"
	EventToolInput  EventType = "tool-input-available"
	EventToolOutput EventType = "tool-output-available"
	EventStepFinish EventType = "finish-step"
)

// AgentEvent is one increment produced while the agent answers.
type AgentEvent struct {
	Type       EventType
	ID         string
	Delta      string
	ToolCallID string
	ToolName   string
	Input      json.RawMessage
	Output     string
}

// EmitFunc receives agent events in order. A non-nil error stops the turn.
type EmitFunc func(AgentEvent) error

// AgentConfig holds the persona and limits of the agent.
type AgentConfig struct {
	Instructions string
	Model        string
	Temperature  float32
	MaxSteps     int
	Timeout      time.Duration
}

// Agent answers conversations with a chat model that may call the document
// search tool before replying.
type Agent struct {
	llm  ChatCompleter
	tool DocumentSearcher
	cfg  AgentConfig
}

// NewAgent creates a new Agent instance
func NewAgent(llm ChatCompleter, tool DocumentSearcher, cfg AgentConfig) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultAgentMaxSteps
	}
	return &Agent{llm: llm, tool: tool, cfg: cfg}
}

// SearchToolSpec describes the document search tool to the chat model.
func SearchToolSpec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        SearchToolName,
		Description: SearchToolDescription,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query used to find relevant document passages.",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Run answers the conversation, emitting text and tool events as they happen.
// Tool results are fed back to the model until it replies without calling a
// tool or MaxSteps is reached.
func (a *Agent) Run(ctx context.Context, history []domain.ConversationMessage, emit EmitFunc) error {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	ctx, span := telemetry.StartSpan(ctx, "Agent.Run", telemetry.SpanAttributes{
		Model:     a.cfg.Model,
		Operation: "chat",
	})
	defer span.End()

	messages := a.buildMessages(history)
	for step := 0; step < a.cfg.MaxSteps; step++ {
		more, err := a.runStep(ctx, step, &messages, emit)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = domain.Wrap(domain.ErrChatTimeout, err)
			}
			span.SetError(err)
			return err
		}
		if !more {
			return nil
		}
	}

	log.Printf("agent: stopped after %d steps", a.cfg.MaxSteps)
	return nil
}

func (a *Agent) buildMessages(history []domain.ConversationMessage) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+1)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: a.cfg.Instructions})

	for _, m := range history {
		if m.Content == "" {
			continue
		}
		role := m.Role
		// Tool results without their originating call cannot be replayed as
		// tool messages.
		if role == domain.RoleTool {
			role = domain.RoleAssistant
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: m.Content})
	}

	return messages
}

func (a *Agent) runStep(ctx context.Context, step int, messages *[]domain.ChatMessage, emit EmitFunc) (bool, error) {
	if err := emit(AgentEvent{Type: EventStepStart}); err != nil {
		return false, err
	}

	stream, err := a.llm.StreamCompletion(ctx, domain.ChatRequest{
		Model:       a.cfg.Model,
		Messages:    *messages,
		Tools:       []domain.ToolSpec{SearchToolSpec()},
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return false, err
	}
	defer stream.Close()

	textID := fmt.Sprintf("text-%d", step)
	var text strings.Builder
	calls := map[int]*domain.ToolCall{}

	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return false, err
		}

		if delta.Text != "" {
			if text.Len() == 0 {
				if err := emit(AgentEvent{Type: EventTextStart, ID: textID}); err != nil {
					return false, err
				}
			}
			text.WriteString(delta.Text)
			if err := emit(AgentEvent{Type: EventTextDelta, ID: textID, Delta: delta.Text}); err != nil {
				return false, err
			}
		}

		for _, tc := range delta.ToolCalls {
			call, ok := calls[tc.Index]
			if !ok {
				call = &domain.ToolCall{}
				calls[tc.Index] = call
			}
			if tc.ID != "" {
				call.ID = tc.ID
			}
			if tc.Name != "" {
				call.Name = tc.Name
			}
			call.Arguments += tc.Arguments
		}
	}

	if text.Len() > 0 {
		if err := emit(AgentEvent{Type: EventTextEnd, ID: textID}); err != nil {
			return false, err
		}
	}

	if len(calls) == 0 {
		return false, emit(AgentEvent{Type: EventStepFinish})
	}

	assistant := domain.ChatMessage{
		Role:      domain.RoleAssistant,
		Content:   text.String(),
		ToolCalls: orderedCalls(calls, step),
	}
	*messages = append(*messages, assistant)

	for _, call := range assistant.ToolCalls {
		if err := emit(AgentEvent{
			Type:       EventToolInput,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Input:      toolInput(call.Arguments),
		}); err != nil {
			return false, err
		}

		output := a.callTool(ctx, call)
		telemetry.AddBreadcrumb(ctx, "agent", fmt.Sprintf("tool %s returned %d bytes", call.Name, len(output)))

		if err := emit(AgentEvent{
			Type:       EventToolOutput,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Output:     output,
		}); err != nil {
			return false, err
		}

		*messages = append(*messages, domain.ChatMessage{
			Role:       domain.RoleTool,
			Content:    output,
			ToolCallID: call.ID,
		})
	}

	return true, emit(AgentEvent{Type: EventStepFinish})
}

// callTool runs a requested tool. Failures come back as text for the model.
func (a *Agent) callTool(ctx context.Context, call domain.ToolCall) string {
	if call.Name != SearchToolName {
		return fmt.Sprintf("Error: unknown tool %q.", call.Name)
	}

	var args struct {
		Query string `json:"query"`
	}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "Error: invalid tool arguments: " + err.Error()
		}
	}

	return a.tool.Search(ctx, args.Query)
}

func orderedCalls(calls map[int]*domain.ToolCall, step int) []domain.ToolCall {
	indexes := make([]int, 0, len(calls))
	for idx := range calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make([]domain.ToolCall, 0, len(indexes))
	for i, idx := range indexes {
		call := *calls[idx]
		if call.ID == "" {
			call.ID = fmt.Sprintf("call_%d_%d", step, i)
		}
		out = append(out, call)
	}
	return out
}

func toolInput(arguments string) json.RawMessage {
	if strings.TrimSpace(arguments) == "" {
		return json.RawMessage(`{}`)
	}
	if json.Valid([]byte(arguments)) {
		return json.RawMessage(arguments)
	}
	quoted, _ := json.Marshal(arguments)
	return quoted
}
