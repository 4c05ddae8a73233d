package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cloo-solutions/ragengine/internal/api"
	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/service"
	"github.com/cloo-solutions/ragengine/internal/telemetry"
	"github.com/google/uuid"
)

// genericStreamError is shown to the user when the failure carries no
// domain message worth surfacing.
const genericStreamError = "An error occurred while generating the response."

type ChatAgent interface {
	Run(ctx context.Context, history []domain.ConversationMessage, emit service.EmitFunc) error
}

type ChatHandler struct {
	agent ChatAgent
	newID func() string
}

func NewChatHandler(agent ChatAgent) *ChatHandler {
	return &ChatHandler{agent: agent, newID: uuid.NewString}
}

type ChatRequest struct {
	Messages []domain.UIMessage `json:"messages"`
}

// Chat streams the agent's answer to the posted conversation as a UI message
// stream.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Messages == nil {
		api.Error(w, http.StatusBadRequest, "messages is required")
		return
	}

	stream, err := api.NewStreamWriter(w)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	history := service.NormalizeMessages(req.Messages)

	ctx := r.Context()
	if err := stream.Start(h.newID()); err != nil {
		return
	}

	runErr := h.agent.Run(ctx, history, func(ev service.AgentEvent) error {
		return stream.Write(eventToChunk(ev))
	})
	if runErr != nil {
		if ctx.Err() != nil && !errors.Is(runErr, domain.ErrChatTimeout) {
			// Client went away; nobody is left to read the error.
			return
		}
		log.Printf("chat turn failed: %v", runErr)
		telemetry.CaptureError(ctx, runErr)
		if err := stream.Error(streamErrorText(runErr)); err != nil {
			return
		}
	}

	_ = stream.Finish()
}

func eventToChunk(ev service.AgentEvent) api.UIChunk {
	chunk := api.UIChunk{
		Type:       string(ev.Type),
		ID:         ev.ID,
		Delta:      ev.Delta,
		ToolCallID: ev.ToolCallID,
		ToolName:   ev.ToolName,
		Input:      ev.Input,
	}
	if ev.Type == service.EventToolOutput {
		out, err := json.Marshal(ev.Output)
		if err == nil {
			chunk.Output = out
		}
	}
	return chunk
}

func streamErrorText(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case domain.ErrCodeProviderUnavailable, domain.ErrCodeProviderRejected, domain.ErrCodeRateLimited, domain.ErrCodeTimeout:
			return de.Message
		}
	}
	return genericStreamError
}
