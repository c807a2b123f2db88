package openai

import (
	"encoding/json"
	"fmt"

	"github.com/leofalp/aigochat/providers/ai"
)

// streamEvent is the envelope of every Responses API SSE payload. Only the
// fields of the events we act on are decoded.
type streamEvent struct {
	Type     string          `json:"type"`
	Delta    string          `json:"delta,omitempty"`    // response.output_text.delta
	Code     string          `json:"code,omitempty"`     // error
	Message  string          `json:"message,omitempty"`  // error
	Response *failedResponse `json:"response,omitempty"` // response.failed
}

type failedResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func decodeEvent(payload string) (string, error) {
	var event streamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return "", fmt.Errorf("failed to parse openai stream event: %w", err)
	}

	switch event.Type {
	case "response.output_text.delta":
		return event.Delta, nil
	case "error":
		return "", &ai.StreamError{Vendor: ai.VendorOpenAI, Type: event.Code, Message: event.Message}
	case "response.failed":
		streamErr := &ai.StreamError{Vendor: ai.VendorOpenAI, Message: "response failed"}
		if event.Response != nil && event.Response.Error != nil {
			streamErr.Type = event.Response.Error.Code
			streamErr.Message = event.Response.Error.Message
		}
		return "", streamErr
	default:
		return "", nil
	}
}
