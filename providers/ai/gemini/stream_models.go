package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/leofalp/aigochat/providers/ai"
)

// chatCompletionChunk is one OpenAI-style streaming chunk. Gemini reports
// mid-stream failures as a chunk carrying only an error object.
type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *chunkError `json:"error,omitempty"`
}

type chunkError struct {
	Code    any    `json:"code"` // number or string depending on the failure path
	Status  string `json:"status"`
	Message string `json:"message"`
}

func decodeChunk(payload string) (string, error) {
	var chunk chatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", fmt.Errorf("failed to parse gemini stream chunk: %w", err)
	}

	if chunk.Error != nil {
		errType := chunk.Error.Status
		if errType == "" && chunk.Error.Code != nil {
			errType = fmt.Sprint(chunk.Error.Code)
		}
		return "", &ai.StreamError{Vendor: ai.VendorGoogle, Type: errType, Message: chunk.Error.Message}
	}

	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}
