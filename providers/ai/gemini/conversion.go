package gemini

import "github.com/leofalp/aigochat/providers/ai"

type chatCompletionsRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// toChatMessages forwards the three normalized roles positionally.
func toChatMessages(messages []ai.Message) []chatMessage {
	converted := make([]chatMessage, 0, len(messages))
	for _, message := range messages {
		if !message.Role.Valid() {
			continue
		}
		converted = append(converted, chatMessage{Role: string(message.Role), Content: message.Content})
	}
	return converted
}
