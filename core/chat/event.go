package chat

import "encoding/json"

// EventType discriminates the events of a chat turn.
type EventType string

const (
	EventContent EventType = "content"
	EventError   EventType = "error"
	EventDone    EventType = "done"
)

// Event is one item of the sequence returned by Orchestrator.Start. A turn
// emits zero or more content events followed by exactly one error or done
// event, unless the consumer stops early.
type Event struct {
	Type EventType

	// Content is the fragment carried by a content event.
	Content string

	// Error is the user-safe message carried by an error event.
	Error string
}

// MarshalJSON renders the wire shape of the event:
// {"content": "..."}, {"error": "..."} or {"done": true}.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventContent:
		return json.Marshal(struct {
			Content string `json:"content"`
		}{e.Content})
	case EventError:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{e.Error})
	default:
		return json.Marshal(struct {
			Done bool `json:"done"`
		}{true})
	}
}
