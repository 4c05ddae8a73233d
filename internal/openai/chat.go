package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloo-solutions/ragengine/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultChatModel is used when neither config nor request names a model
const DefaultChatModel = "gpt-4o-mini"

// ChatStreamReader is the receiving side of a streamed chat completion
type ChatStreamReader interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// ChatAPI opens streamed chat completions
type ChatAPI interface {
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (ChatStreamReader, error)
}

type sdkChatAPI struct {
	client *openai.Client
}

func (a *sdkChatAPI) CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (ChatStreamReader, error) {
	return a.client.CreateChatCompletionStream(ctx, req)
}

// ChatClient streams chat completions with tool calling.
type ChatClient struct {
	api   ChatAPI
	model string
}

// NewChatClient creates a chat client for the given SDK client and default model
func NewChatClient(client *openai.Client, model string) *ChatClient {
	if model == "" {
		model = DefaultChatModel
	}
	return &ChatClient{api: &sdkChatAPI{client: client}, model: model}
}

// CompletionStream yields completion deltas until io.EOF.
type CompletionStream struct {
	reader ChatStreamReader
}

// Recv returns the next delta, or io.EOF once the model has finished.
func (s *CompletionStream) Recv() (domain.CompletionDelta, error) {
	for {
		resp, err := s.reader.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return domain.CompletionDelta{}, io.EOF
			}
			return domain.CompletionDelta{}, ClassifyError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		return toDelta(resp.Choices[0]), nil
	}
}

// Close releases the underlying HTTP stream.
func (s *CompletionStream) Close() error {
	return s.reader.Close()
}

// StreamCompletion opens a streamed completion for req.
func (c *ChatClient) StreamCompletion(ctx context.Context, req domain.ChatRequest) (domain.CompletionStream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	sdkReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toSDKMessages(req.Messages),
		Tools:       toSDKTools(req.Tools),
		Temperature: req.Temperature,
		Stream:      true,
	}

	reader, err := c.api.CreateChatCompletionStream(ctx, sdkReq)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat stream: %w", ClassifyError(err))
	}

	return &CompletionStream{reader: reader}, nil
}

func toDelta(choice openai.ChatCompletionStreamChoice) domain.CompletionDelta {
	delta := domain.CompletionDelta{
		Text:         choice.Delta.Content,
		FinishReason: string(choice.FinishReason),
	}
	for i, tc := range choice.Delta.ToolCalls {
		index := i
		if tc.Index != nil {
			index = *tc.Index
		}
		delta.ToolCalls = append(delta.ToolCalls, domain.ToolCallDelta{
			Index:     index,
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return delta
}

func toSDKMessages(messages []domain.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toSDKTools(tools []domain.ToolSpec) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
