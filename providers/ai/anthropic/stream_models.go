package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/leofalp/aigochat/providers/ai"
)

// Every Messages API event repeats its "event:" name in the payload's "type"
// field, so decoding switches on the payload alone.

type streamEvent struct {
	Type  string          `json:"type"`
	Index int             `json:"index,omitempty"` // content_block_* events
	Delta *streamDelta    `json:"delta,omitempty"` // content_block_delta, message_delta
	Error *anthropicError `json:"error,omitempty"` // error
}

// streamDelta is the payload of content_block_delta. Only text_delta carries
// caller-visible text; thinking and input_json deltas are ignored.
type streamDelta struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"` // e.g. "overloaded_error", "rate_limit_error"
	Message string `json:"message"`
}

func decodeEvent(payload string) (string, error) {
	var event streamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return "", fmt.Errorf("failed to parse anthropic stream event: %w", err)
	}
	if event.Type == "" {
		return "", fmt.Errorf("missing type field in anthropic stream event")
	}

	switch event.Type {
	case "content_block_delta":
		if event.Delta != nil && event.Delta.Type == "text_delta" {
			return event.Delta.Text, nil
		}
	case "error":
		streamErr := &ai.StreamError{Vendor: ai.VendorClaude, Message: "unknown stream error"}
		if event.Error != nil {
			streamErr.Type = event.Error.Type
			streamErr.Message = event.Error.Message
		}
		return "", streamErr
	}
	return "", nil
}
