package openai

import "github.com/leofalp/aigochat/providers/ai"

type responsesRequest struct {
	Model  string      `json:"model"`
	Input  []inputItem `json:"input"`
	Stream bool        `json:"stream"`
}

type inputItem struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// toInputItems keeps the roles the Responses API accepts as message input and
// drops the rest.
func toInputItems(messages []ai.Message) []inputItem {
	items := make([]inputItem, 0, len(messages))
	for _, message := range messages {
		switch message.Role {
		case ai.RoleSystem, ai.RoleUser, ai.RoleAssistant, "developer":
			items = append(items, inputItem{Type: "message", Role: string(message.Role), Content: message.Content})
		}
	}
	return items
}
