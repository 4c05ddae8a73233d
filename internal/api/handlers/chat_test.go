package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/ragengine/internal/api"
	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestChatHandler(agent ChatAgent) *ChatHandler {
	h := NewChatHandler(agent)
	h.newID = func() string { return "msg-1" }
	return h
}

// readChunks splits an SSE body into decoded chunks and reports whether the
// stream was terminated.
func readChunks(t *testing.T, body string) ([]api.UIChunk, bool) {
	t.Helper()
	var chunks []api.UIChunk
	done := false
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == api.StreamDone {
			done = true
			continue
		}
		var c api.UIChunk
		require.NoError(t, json.Unmarshal([]byte(data), &c))
		chunks = append(chunks, c)
	}
	return chunks, done
}

func chunkTypes(chunks []api.UIChunk) []string {
	types := make([]string, len(chunks))
	for i, c := range chunks {
		types[i] = c.Type
	}
	return types
}

func TestChatHandler_Chat_StreamsText(t *testing.T) {
	agent := &MockChatAgent{events: []service.AgentEvent{
		{Type: service.EventStepStart},
		{Type: service.EventTextStart, ID: "text-0"},
		{Type: service.EventTextDelta, ID: "text-0", Delta: "Hel"},
		{Type: service.EventTextDelta, ID: "text-0", Delta: "lo"},
		{Type: service.EventTextEnd, ID: "text-0"},
		{Type: service.EventStepFinish},
	}}
	agent.On("Run", mock.Anything, []domain.ConversationMessage{
		{Role: domain.RoleUser, Content: "Hi"},
	}).Return(nil)

	handler := newTestChatHandler(agent)

	body := `{"messages":[{"role":"user","parts":[{"type":"text","text":"Hi"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "v1", w.Header().Get(api.UIMessageStreamHeader))

	chunks, done := readChunks(t, w.Body.String())
	assert.True(t, done)
	assert.Equal(t, []string{"start", "start-step", "text-start", "text-delta", "text-delta", "text-end", "finish-step", "finish"}, chunkTypes(chunks))
	assert.Equal(t, "msg-1", chunks[0].MessageID)
	assert.Equal(t, "Hel", chunks[3].Delta)
	assert.Equal(t, "lo", chunks[4].Delta)
	agent.AssertExpectations(t)
}

func TestChatHandler_Chat_ToolAnnotations(t *testing.T) {
	agent := &MockChatAgent{events: []service.AgentEvent{
		{Type: service.EventToolInput, ToolCallID: "call_1", ToolName: "searchFiles", Input: json.RawMessage(`{"query":"gamma"}`)},
		{Type: service.EventToolOutput, ToolCallID: "call_1", Output: "gamma facts"},
	}}
	agent.On("Run", mock.Anything, mock.Anything).Return(nil)

	handler := newTestChatHandler(agent)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"gamma?"}]}`))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	chunks, _ := readChunks(t, w.Body.String())
	require.Len(t, chunks, 4)
	assert.Equal(t, "tool-input-available", chunks[1].Type)
	assert.Equal(t, "searchFiles", chunks[1].ToolName)
	assert.JSONEq(t, `{"query":"gamma"}`, string(chunks[1].Input))
	assert.Equal(t, "tool-output-available", chunks[2].Type)
	assert.JSONEq(t, `"gamma facts"`, string(chunks[2].Output))
}

func TestChatHandler_Chat_AgentError(t *testing.T) {
	agent := &MockChatAgent{}
	agent.On("Run", mock.Anything, mock.Anything).Return(domain.Wrap(domain.ErrProviderUnavailable, assert.AnError))

	handler := newTestChatHandler(agent)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"Hi"}]}`))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	chunks, done := readChunks(t, w.Body.String())
	assert.True(t, done)
	assert.Equal(t, []string{"start", "error", "finish"}, chunkTypes(chunks))
	assert.Equal(t, domain.ErrProviderUnavailable.Message, chunks[1].ErrorText)
}

func TestChatHandler_Chat_ProviderRejectionIsReported(t *testing.T) {
	agent := &MockChatAgent{}
	agent.On("Run", mock.Anything, mock.Anything).Return(domain.Wrap(domain.ErrProviderRejected, assert.AnError))

	handler := newTestChatHandler(agent)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"Hi"}]}`))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	chunks, _ := readChunks(t, w.Body.String())
	assert.Equal(t, []string{"start", "error", "finish"}, chunkTypes(chunks))
	assert.Equal(t, domain.ErrProviderRejected.Message, chunks[1].ErrorText)
}

func TestChatHandler_Chat_UnknownErrorIsGeneric(t *testing.T) {
	agent := &MockChatAgent{}
	agent.On("Run", mock.Anything, mock.Anything).Return(assert.AnError)

	handler := newTestChatHandler(agent)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	chunks, _ := readChunks(t, w.Body.String())
	require.Len(t, chunks, 3)
	assert.Equal(t, genericStreamError, chunks[1].ErrorText)
}

func TestChatHandler_Chat_MissingMessages(t *testing.T) {
	agent := &MockChatAgent{}
	handler := newTestChatHandler(agent)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "messages is required")
	agent.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestChatHandler_Chat_InvalidJSON(t *testing.T) {
	handler := newTestChatHandler(&MockChatAgent{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":`))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_Chat_ClientGone(t *testing.T) {
	agent := &MockChatAgent{}
	agent.On("Run", mock.Anything, mock.Anything).Return(assert.AnError)

	handler := newTestChatHandler(agent)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"Hi"}]}`))
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	w := httptest.NewRecorder()

	handler.Chat(w, req.WithContext(ctx))

	chunks, done := readChunks(t, w.Body.String())
	assert.False(t, done)
	assert.Equal(t, []string{"start"}, chunkTypes(chunks))
}
