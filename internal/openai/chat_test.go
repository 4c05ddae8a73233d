package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/cloo-solutions/ragengine/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (ChatStreamReader, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ChatStreamReader), args.Error(1)
}

type fakeStreamReader struct {
	responses []openai.ChatCompletionStreamResponse
	err       error
	closed    bool
}

func (f *fakeStreamReader) Recv() (openai.ChatCompletionStreamResponse, error) {
	if len(f.responses) == 0 {
		if f.err != nil {
			return openai.ChatCompletionStreamResponse{}, f.err
		}
		return openai.ChatCompletionStreamResponse{}, io.EOF
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeStreamReader) Close() error {
	f.closed = true
	return nil
}

func textChunk(s string) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{{Delta: openai.ChatCompletionStreamChoiceDelta{Content: s}}},
	}
}

func TestChatClient_StreamCompletion_Text(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: "gpt-4o-mini"}

	reader := &fakeStreamReader{responses: []openai.ChatCompletionStreamResponse{
		textChunk("Hel"),
		{},
		textChunk("lo"),
	}}
	mockAPI.On("CreateChatCompletionStream", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-4o-mini" && req.Stream && len(req.Messages) == 2 && req.Messages[0].Role == "system"
	})).Return(reader, nil)

	stream, err := client.StreamCompletion(context.Background(), domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "persona"},
			{Role: domain.RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)

	var text string
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		text += delta.Text
	}
	require.NoError(t, stream.Close())

	assert.Equal(t, "Hello", text)
	assert.True(t, reader.closed)
	mockAPI.AssertExpectations(t)
}

func TestChatClient_StreamCompletion_ToolCallDeltas(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := NewChatClient(nil, "")
	client.api = mockAPI

	idx := 0
	reader := &fakeStreamReader{responses: []openai.ChatCompletionStreamResponse{{
		Choices: []openai.ChatCompletionStreamChoice{{
			Delta: openai.ChatCompletionStreamChoiceDelta{ToolCalls: []openai.ToolCall{{
				Index:    &idx,
				ID:       "call_1",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "searchFiles", Arguments: `{"query":`},
			}}},
			FinishReason: openai.FinishReasonToolCalls,
		}},
	}}}
	mockAPI.On("CreateChatCompletionStream", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == DefaultChatModel && len(req.Tools) == 1 && req.Tools[0].Function.Name == "searchFiles"
	})).Return(reader, nil)

	stream, err := client.StreamCompletion(context.Background(), domain.ChatRequest{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "find"}},
		Tools:    []domain.ToolSpec{{Name: "searchFiles", Description: "search", Parameters: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)

	delta, err := stream.Recv()
	require.NoError(t, err)
	require.Len(t, delta.ToolCalls, 1)
	assert.Equal(t, domain.ToolCallDelta{Index: 0, ID: "call_1", Name: "searchFiles", Arguments: `{"query":`}, delta.ToolCalls[0])
	assert.Equal(t, "tool_calls", delta.FinishReason)
}

func TestChatClient_StreamCompletion_OpenError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: "m"}

	mockAPI.On("CreateChatCompletionStream", mock.Anything, mock.Anything).
		Return(nil, &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests})

	stream, err := client.StreamCompletion(context.Background(), domain.ChatRequest{})

	assert.Nil(t, stream)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestChatClient_StreamCompletion_MidStreamError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: "m"}

	reader := &fakeStreamReader{
		responses: []openai.ChatCompletionStreamResponse{textChunk("partial")},
		err:       errors.New("connection reset"),
	}
	mockAPI.On("CreateChatCompletionStream", mock.Anything, mock.Anything).Return(reader, nil)

	stream, err := client.StreamCompletion(context.Background(), domain.ChatRequest{})
	require.NoError(t, err)

	delta, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial", delta.Text)

	_, err = stream.Recv()
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestToSDKMessages_ToolPlumbing(t *testing.T) {
	msgs := toSDKMessages([]domain.ChatMessage{
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "c1", Name: "searchFiles", Arguments: `{"query":"x"}`}}},
		{Role: domain.RoleTool, ToolCallID: "c1", Content: "result"},
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, "assistant", msgs[0].Role)
	require.Len(t, msgs[0].ToolCalls, 1)
	assert.Equal(t, openai.ToolTypeFunction, msgs[0].ToolCalls[0].Type)
	assert.Equal(t, "searchFiles", msgs[0].ToolCalls[0].Function.Name)
	assert.Equal(t, "tool", msgs[1].Role)
	assert.Equal(t, "c1", msgs[1].ToolCallID)
}

func TestToSDKTools_Empty(t *testing.T) {
	assert.Nil(t, toSDKTools(nil))
}
