package domain

import (
	"bytes"
	"encoding/json"
)

// Part types that carry text.
const (
	PartTypeText      = "text"
	PartTypeTextDelta = "text-delta"
)

// MessageBody is either FlatContent or PartList.
type MessageBody interface {
	isMessageBody()
}

// FlatContent is a message that already carries a single content string.
type FlatContent struct {
	Text string
}

// PartList is a message made of ordered, typed fragments.
type PartList struct {
	Parts []MessagePart
}

func (FlatContent) isMessageBody() {}
func (PartList) isMessageBody()    {}

// MessagePart is one fragment of a UI message.
type MessagePart struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Delta string `json:"delta,omitempty"`
}

// UIMessage is a chat message as sent by the browser client. Body is nil
// when the message carried neither content nor parts.
type UIMessage struct {
	ID   string
	Role string
	Body MessageBody
}

type uiMessageWire struct {
	ID      string          `json:"id,omitempty"`
	Role    json.RawMessage `json:"role,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Parts   json.RawMessage `json:"parts,omitempty"`
}

// UnmarshalJSON decodes a UI message leniently: fields with unexpected
// shapes are treated as absent instead of failing the whole payload.
func (m *UIMessage) UnmarshalJSON(data []byte) error {
	var wire uiMessageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*m = UIMessage{ID: wire.ID}

	var role string
	if json.Unmarshal(wire.Role, &role) == nil {
		m.Role = role
	}

	if present(wire.Content) {
		var content string
		if json.Unmarshal(wire.Content, &content) == nil {
			m.Body = FlatContent{Text: content}
			return nil
		}
	}

	if present(wire.Parts) {
		var raw []json.RawMessage
		if json.Unmarshal(wire.Parts, &raw) == nil {
			parts := make([]MessagePart, 0, len(raw))
			for _, r := range raw {
				var p MessagePart
				if json.Unmarshal(r, &p) != nil {
					p = MessagePart{}
				}
				parts = append(parts, p)
			}
			m.Body = PartList{Parts: parts}
		}
	}

	return nil
}

// MarshalJSON encodes the message back into the wire shape.
func (m UIMessage) MarshalJSON() ([]byte, error) {
	out := map[string]any{"role": m.Role}
	if m.ID != "" {
		out["id"] = m.ID
	}
	switch b := m.Body.(type) {
	case FlatContent:
		out["content"] = b.Text
	case PartList:
		out["parts"] = b.Parts
	}
	return json.Marshal(out)
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
