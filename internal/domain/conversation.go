package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ParseRole maps raw role strings onto a Role; anything unknown becomes RoleUser.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return Role(s)
	}
	return RoleUser
}

// ConversationMessage is the flat role/content form consumed by the agent.
type ConversationMessage struct {
	Role    Role
	Content string
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatMessage is a message sent to the chat model, including tool plumbing.
type ChatMessage struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSpec describes a callable tool offered to the chat model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest is a single streamed completion request.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Tools       []ToolSpec
	Temperature float32
}

// ToolCallDelta is a fragment of a streamed tool call. Fragments sharing an
// Index belong to the same call.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// CompletionDelta is one increment received from a streamed completion.
type CompletionDelta struct {
	Text         string
	ToolCalls    []ToolCallDelta
	FinishReason string
}

// CompletionStream yields deltas of a streamed completion until io.EOF.
type CompletionStream interface {
	Recv() (CompletionDelta, error)
	Close() error
}
