package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nonFlusher struct {
	http.ResponseWriter
}

func readChunks(t *testing.T, body string) ([]UIChunk, bool) {
	t.Helper()
	var chunks []UIChunk
	done := false
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		require.True(t, strings.HasPrefix(line, "data: "), line)
		data := strings.TrimPrefix(line, "data: ")
		if data == StreamDone {
			done = true
			continue
		}
		var c UIChunk
		require.NoError(t, json.Unmarshal([]byte(data), &c))
		chunks = append(chunks, c)
	}
	return chunks, done
}

func TestStreamWriter_Lifecycle(t *testing.T) {
	w := httptest.NewRecorder()

	sw, err := NewStreamWriter(w)
	require.NoError(t, err)

	require.NoError(t, sw.Start("msg-1"))
	require.NoError(t, sw.Write(UIChunk{Type: ChunkTextDelta, ID: "t0", Delta: "hi"}))
	require.NoError(t, sw.Write(UIChunk{Type: ChunkToolOutputAvailable, ToolCallID: "c1", Output: json.RawMessage(`""`)}))
	require.NoError(t, sw.Finish())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "v1", w.Header().Get(UIMessageStreamHeader))
	assert.True(t, w.Flushed)

	chunks, done := readChunks(t, w.Body.String())
	assert.True(t, done)
	require.Len(t, chunks, 4)
	assert.Equal(t, UIChunk{Type: ChunkStart, MessageID: "msg-1"}, chunks[0])
	assert.Equal(t, "hi", chunks[1].Delta)
	assert.JSONEq(t, `""`, string(chunks[2].Output))
	assert.Equal(t, ChunkFinish, chunks[3].Type)
}

func TestStreamWriter_Error(t *testing.T) {
	w := httptest.NewRecorder()
	sw, err := NewStreamWriter(w)
	require.NoError(t, err)

	require.NoError(t, sw.Error("model provider unavailable"))

	assert.Contains(t, w.Body.String(), `"type":"error"`)
	assert.Contains(t, w.Body.String(), `"errorText":"model provider unavailable"`)
}

func TestNewStreamWriter_RequiresFlusher(t *testing.T) {
	_, err := NewStreamWriter(nonFlusher{httptest.NewRecorder()})

	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}
