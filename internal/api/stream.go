package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// UIMessageStreamHeader marks a response as a UI message stream.
const UIMessageStreamHeader = "x-vercel-ai-ui-message-stream"

// Chunk types of the UI message stream.
const (
	ChunkStart               = "start"
	ChunkStartStep           = "start-step"
	ChunkTextStart           = "text-start"
	ChunkTextDelta           = "text-delta"
	ChunkTextEnd             = "text-end"
	ChunkToolInputAvailable  = "tool-input-available"
	ChunkToolOutputAvailable = "tool-output-available"
	ChunkFinishStep          = "finish-step"
	ChunkFinish              = "finish"
	ChunkError               = "error"
)

// StreamDone terminates the event stream.
const StreamDone = "[DONE]"

// UIChunk is one server-sent event of a UI message stream.
type UIChunk struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	MessageID  string          `json:"messageId,omitempty"`
	Delta      string          `json:"delta,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorText  string          `json:"errorText,omitempty"`
}

var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

// StreamWriter writes UI message stream chunks as server-sent events,
// flushing after each one.
type StreamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewStreamWriter fails when w cannot flush.
func NewStreamWriter(w http.ResponseWriter) (*StreamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &StreamWriter{w: w, flusher: flusher}, nil
}

// Start sends the stream headers and the start chunk.
func (s *StreamWriter) Start(messageID string) error {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set(UIMessageStreamHeader, "v1")
	s.w.WriteHeader(http.StatusOK)

	return s.Write(UIChunk{Type: ChunkStart, MessageID: messageID})
}

// Write sends one chunk.
func (s *StreamWriter) Write(chunk UIChunk) error {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to encode stream chunk: %w", err)
	}
	return s.writeData(string(payload))
}

// Error sends an error chunk.
func (s *StreamWriter) Error(message string) error {
	return s.Write(UIChunk{Type: ChunkError, ErrorText: message})
}

// Finish sends the finish chunk and the terminator.
func (s *StreamWriter) Finish() error {
	if err := s.Write(UIChunk{Type: ChunkFinish}); err != nil {
		return err
	}
	return s.writeData(StreamDone)
}

func (s *StreamWriter) writeData(data string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
