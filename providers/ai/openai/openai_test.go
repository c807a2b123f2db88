package openai

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

func writeSSE(writer http.ResponseWriter, eventType, data string) {
	fmt.Fprintf(writer, "event: %s\ndata: %s\n\n", eventType, data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func TestNew_MissingKey_ReturnsMissingCredential(t *testing.T) {
	_, err := New("")
	if !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestNewFromEnv_ReadsKeyAndBaseURL(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_API_BASE_URL", "http://localhost:9999/v1")

	provider, err := NewFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.apiKey != "env-key" || provider.baseURL != "http://localhost:9999/v1" {
		t.Errorf("unexpected provider config: key=%q base=%q", provider.apiKey, provider.baseURL)
	}
}

func TestStreamChat_EmptyMessages_ReturnsError(t *testing.T) {
	provider, _ := New("key")
	if _, err := provider.StreamChat(context.Background(), nil, "gpt-5.2"); !errors.Is(err, ai.ErrNoMessages) {
		t.Fatalf("expected ErrNoMessages, got %v", err)
	}
}

func TestStreamChat_ContentStreaming(t *testing.T) {
	var captured responsesRequest
	var capturedAuth, capturedPath string

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		capturedAuth = request.Header.Get("Authorization")
		capturedPath = request.URL.Path
		_ = json.NewDecoder(request.Body).Decode(&captured)

		writer.Header().Set("Content-Type", "text/event-stream")
		writeSSE(writer, "response.created", `{"type":"response.created","response":{"id":"resp_1"}}`)
		writeSSE(writer, "response.output_text.delta", `{"type":"response.output_text.delta","delta":"He"}`)
		writeSSE(writer, "response.output_text.delta", `{"type":"response.output_text.delta","delta":"llo"}`)
		writeSSE(writer, "response.completed", `{"type":"response.completed","response":{"id":"resp_1"}}`)
	}))
	defer server.Close()

	provider, err := New("test-key", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stream, err := provider.StreamChat(context.Background(), []ai.Message{
		{Role: ai.RoleSystem, Content: "be brief"},
		{Role: ai.RoleUser, Content: "hi"},
		{Role: "tool", Content: "dropped"},
	}, "gpt-5.2")
	if err != nil {
		t.Fatalf("StreamChat returned unexpected error: %v", err)
	}

	var fragments []string
	for fragment, iterErr := range stream.Iter() {
		if iterErr != nil {
			t.Fatalf("unexpected stream error: %v", iterErr)
		}
		fragments = append(fragments, fragment)
	}

	if len(fragments) != 2 || fragments[0] != "He" || fragments[1] != "llo" {
		t.Errorf("unexpected fragments %v", fragments)
	}
	if capturedPath != "/responses" {
		t.Errorf("expected /responses, got %s", capturedPath)
	}
	if capturedAuth != "Bearer test-key" {
		t.Errorf("unexpected Authorization header %q", capturedAuth)
	}
	if !captured.Stream || captured.Model != "gpt-5.2" {
		t.Errorf("unexpected request %+v", captured)
	}
	if len(captured.Input) != 2 || captured.Input[0].Type != "message" || captured.Input[0].Role != "system" {
		t.Errorf("unexpected input items %+v", captured.Input)
	}
}

func TestStreamChat_ErrorEvent_RaisesStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writeSSE(writer, "response.output_text.delta", `{"type":"response.output_text.delta","delta":"par"}`)
		writeSSE(writer, "error", `{"type":"error","code":"rate_limit_exceeded","message":"Rate limit reached"}`)
	}))
	defer server.Close()

	provider, _ := New("key", WithBaseURL(server.URL))
	stream, _ := provider.StreamChat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, "gpt-5.2")

	text, err := stream.Collect()
	var streamErr *ai.StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected *ai.StreamError, got %v", err)
	}
	if streamErr.Type != "rate_limit_exceeded" || text != "par" {
		t.Errorf("unexpected result: type=%q text=%q", streamErr.Type, text)
	}
}

func TestStreamChat_ResponseFailed_RaisesStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writeSSE(writer, "response.failed", `{"type":"response.failed","response":{"error":{"code":"server_error","message":"boom"}}}`)
	}))
	defer server.Close()

	provider, _ := New("key", WithBaseURL(server.URL))
	stream, _ := provider.StreamChat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, "gpt-5.2")

	_, err := stream.Collect()
	var streamErr *ai.StreamError
	if !errors.As(err, &streamErr) || streamErr.Type != "server_error" {
		t.Fatalf("expected server_error StreamError, got %v", err)
	}
}

func TestStreamChat_Unauthorized_RaisesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		http.Error(writer, `{"error":{"message":"Incorrect API key provided"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	provider, _ := New("bad", WithBaseURL(server.URL))
	stream, err := provider.StreamChat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, "gpt-5.2")
	if err != nil {
		t.Fatalf("StreamChat should not contact the vendor: %v", err)
	}

	_, err = stream.Collect()
	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}
