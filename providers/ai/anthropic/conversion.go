package anthropic

import "github.com/leofalp/aigochat/providers/ai"

type messagesRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    string             `json:"system,omitempty"`
	MaxTokens int                `json:"max_tokens"`
	Stream    bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// convertMessages splits the normalized list into the system instruction and
// the conversation turns. When several system messages are present the last
// one wins; earlier ones are dropped, not re-injected as turns.
func convertMessages(messages []ai.Message) (string, []anthropicMessage) {
	var system string
	converted := make([]anthropicMessage, 0, len(messages))

	for _, message := range messages {
		switch message.Role {
		case ai.RoleSystem:
			system = message.Content
		case ai.RoleUser, ai.RoleAssistant:
			converted = append(converted, anthropicMessage{Role: string(message.Role), Content: message.Content})
		}
	}

	return system, converted
}
