package service

import (
	"strings"

	"github.com/cloo-solutions/ragengine/internal/domain"
)

// NormalizeMessages converts UI messages into conversation messages. The
// output always has one entry per input message.
func NormalizeMessages(msgs []domain.UIMessage) []domain.ConversationMessage {
	out := make([]domain.ConversationMessage, len(msgs))
	for i, m := range msgs {
		out[i] = NormalizeMessage(m)
	}
	return out
}

// NormalizeMessage flattens a single UI message. Flat content passes through;
// part lists keep the text of text and text-delta parts joined by newlines.
func NormalizeMessage(m domain.UIMessage) domain.ConversationMessage {
	msg := domain.ConversationMessage{Role: domain.ParseRole(m.Role)}

	switch body := m.Body.(type) {
	case domain.FlatContent:
		msg.Content = body.Text
	case domain.PartList:
		msg.Content = joinTextParts(body.Parts)
	}

	return msg
}

func joinTextParts(parts []domain.MessagePart) string {
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Type != domain.PartTypeText && p.Type != domain.PartTypeTextDelta {
			continue
		}
		text := p.Text
		if text == "" {
			text = p.Delta
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n")
}
