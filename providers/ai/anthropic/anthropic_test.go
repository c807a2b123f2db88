package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leofalp/aigochat/providers/ai"
)

// writeSSE writes a typed SSE event and flushes it so the client receives it
// immediately.
func writeSSE(writer http.ResponseWriter, eventType, data string) {
	fmt.Fprintf(writer, "event: %s\ndata: %s\n\n", eventType, data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func TestNew_MissingKey_ReturnsMissingCredential(t *testing.T) {
	if _, err := New(""); !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestNewFromEnv_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewFromEnv(); !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestStreamChat_ContentStreaming(t *testing.T) {
	var captured messagesRequest
	var capturedKey, capturedVersion, capturedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		capturedKey = request.Header.Get("x-api-key")
		capturedVersion = request.Header.Get("anthropic-version")
		capturedAuth = request.Header.Get("Authorization")
		_ = json.NewDecoder(request.Body).Decode(&captured)

		writer.Header().Set("Content-Type", "text/event-stream")
		writeSSE(writer, "message_start",
			`{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"usage":{"input_tokens":25,"output_tokens":0}}}`)
		writeSSE(writer, "content_block_start",
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		writeSSE(writer, "ping", `{"type":"ping"}`)
		writeSSE(writer, "content_block_delta",
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`)
		writeSSE(writer, "content_block_delta",
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`)
		writeSSE(writer, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		writeSSE(writer, "message_delta",
			`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":5}}`)
		writeSSE(writer, "message_stop", `{"type":"message_stop"}`)
	}))
	defer server.Close()

	provider, err := New("test-key", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stream, err := provider.StreamChat(context.Background(), []ai.Message{
		{Role: ai.RoleSystem, Content: "first system"},
		{Role: ai.RoleUser, Content: "Hi"},
		{Role: ai.RoleAssistant, Content: "Hello!"},
		{Role: ai.RoleSystem, Content: "second system"},
		{Role: ai.RoleUser, Content: "How are you?"},
	}, "claude-sonnet-4-5")
	if err != nil {
		t.Fatalf("StreamChat returned unexpected error: %v", err)
	}

	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if text != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", text)
	}

	if capturedKey != "test-key" || capturedVersion != anthropicVersion {
		t.Errorf("unexpected headers: x-api-key=%q anthropic-version=%q", capturedKey, capturedVersion)
	}
	if capturedAuth != "" {
		t.Errorf("Authorization header should not be sent, got %q", capturedAuth)
	}
	if captured.System != "second system" {
		t.Errorf("expected last system message to win, got %q", captured.System)
	}
	if captured.MaxTokens != defaultMaxTokens || !captured.Stream {
		t.Errorf("unexpected request fields %+v", captured)
	}
	if len(captured.Messages) != 3 {
		t.Fatalf("expected 3 forwarded turns, got %d", len(captured.Messages))
	}
}

func TestStreamChat_ErrorEvent_RaisesStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writeSSE(writer, "content_block_delta",
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`)
		writeSSE(writer, "error",
			`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	}))
	defer server.Close()

	provider, _ := New("test-key", WithBaseURL(server.URL))
	stream, _ := provider.StreamChat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "Hi"}}, "claude-haiku-4-5")

	var fragments []string
	var streamErr error
	for fragment, err := range stream.Iter() {
		if err != nil {
			streamErr = err
			break
		}
		fragments = append(fragments, fragment)
	}

	var typed *ai.StreamError
	if !errors.As(streamErr, &typed) {
		t.Fatalf("expected *ai.StreamError, got %v", streamErr)
	}
	if typed.Type != "overloaded_error" || typed.Vendor != ai.VendorClaude {
		t.Errorf("unexpected error %+v", typed)
	}
	if len(fragments) != 1 || fragments[0] != "Hel" {
		t.Errorf("expected one fragment before the error, got %v", fragments)
	}
}

func TestStreamChat_IgnoresNonTextDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writeSSE(writer, "content_block_delta",
			`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}`)
		writeSSE(writer, "content_block_delta",
			`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"answer"}}`)
	}))
	defer server.Close()

	provider, _ := New("test-key", WithBaseURL(server.URL))
	stream, _ := provider.StreamChat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "Hi"}}, "claude-opus-4-5")

	text, err := stream.Collect()
	if err != nil || text != "answer" {
		t.Fatalf("expected only text deltas, got %q (%v)", text, err)
	}
}

func TestConvertMessages(t *testing.T) {
	tests := []struct {
		name       string
		messages   []ai.Message
		wantSystem string
		wantRoles  []string
	}{
		{
			name:      "no system message",
			messages:  []ai.Message{{Role: ai.RoleUser, Content: "a"}, {Role: ai.RoleAssistant, Content: "b"}},
			wantRoles: []string{"user", "assistant"},
		},
		{
			name:       "system separated",
			messages:   []ai.Message{{Role: ai.RoleSystem, Content: "sys"}, {Role: ai.RoleUser, Content: "a"}},
			wantSystem: "sys",
			wantRoles:  []string{"user"},
		},
		{
			name:      "unknown roles dropped",
			messages:  []ai.Message{{Role: "tool", Content: "x"}, {Role: ai.RoleUser, Content: "a"}},
			wantRoles: []string{"user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system, converted := convertMessages(tt.messages)
			if system != tt.wantSystem {
				t.Errorf("system = %q, want %q", system, tt.wantSystem)
			}
			if len(converted) != len(tt.wantRoles) {
				t.Fatalf("got %d messages, want %d", len(converted), len(tt.wantRoles))
			}
			for i, role := range tt.wantRoles {
				if converted[i].Role != role {
					t.Errorf("message %d role = %q, want %q", i, converted[i].Role, role)
				}
			}
		})
	}
}
