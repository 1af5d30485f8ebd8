package prompt

import (
	"github.com/promptly-ai/chat-gateway/internal/llm"
	"github.com/promptly-ai/chat-gateway/internal/model"
)

// DefaultHistoryWindow is the maximum number of prior turns included
// in the model context. Older turns are dropped outright, not
// summarized.
const DefaultHistoryWindow = 10

// BuildContext assembles the bounded conversation context: the most
// recent window prior turns followed by the new user turn. history must
// be in creation order.
func BuildContext(history []model.ChatTurn, query string, window int) []llm.ChatMessage {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	out := make([]llm.ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		out = append(out, llm.ChatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	out = append(out, llm.ChatMessage{
		Role:    string(model.RoleUser),
		Content: query,
	})
	return out
}

// TurnsFromMessages converts persisted messages to client-shape turns
// for context assembly.
func TurnsFromMessages(msgs []model.Message) []model.ChatTurn {
	turns := make([]model.ChatTurn, len(msgs))
	for i, m := range msgs {
		turns[i] = model.ChatTurn{Role: m.Role, Content: m.Content}
	}
	return turns
}
