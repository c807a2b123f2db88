package chat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/leofalp/aigochat/providers/ai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, FailureUnknown},

		// Structured signals.
		{"status 429", &ai.APIError{Vendor: ai.VendorOpenAI, StatusCode: 429}, FailureThrottled},
		{"status 529 overloaded", &ai.APIError{Vendor: ai.VendorClaude, StatusCode: 529}, FailureThrottled},
		{"status 401", &ai.APIError{Vendor: ai.VendorGoogle, StatusCode: 401}, FailureAuth},
		{"status 403", &ai.APIError{Vendor: ai.VendorOpenAI, StatusCode: 403}, FailureAuth},
		{"status 503", &ai.APIError{Vendor: ai.VendorOpenAI, StatusCode: 503}, FailureNetwork},
		{"wrapped status", fmt.Errorf("dispatch: %w", &ai.APIError{Vendor: ai.VendorOpenAI, StatusCode: 429}), FailureThrottled},
		{"stream rate_limit_error", &ai.StreamError{Vendor: ai.VendorClaude, Type: "rate_limit_error"}, FailureThrottled},
		{"stream overloaded_error", &ai.StreamError{Vendor: ai.VendorClaude, Type: "overloaded_error"}, FailureThrottled},
		{"stream RESOURCE_EXHAUSTED", &ai.StreamError{Vendor: ai.VendorGoogle, Type: "RESOURCE_EXHAUSTED"}, FailureThrottled},
		{"stream invalid_api_key", &ai.StreamError{Vendor: ai.VendorOpenAI, Type: "invalid_api_key"}, FailureAuth},
		{"deadline", context.DeadlineExceeded, FailureNetwork},
		{"url error", &url.Error{Op: "Post", URL: "https://api.example.com", Err: errors.New("dial tcp: i/o timeout")}, FailureNetwork},

		// Structured types without a known signal fall through to keywords.
		{"status 500 with quota body", &ai.APIError{Vendor: ai.VendorOpenAI, StatusCode: 500, Body: "quota exceeded"}, FailureThrottled},
		{"status 400", &ai.APIError{Vendor: ai.VendorOpenAI, StatusCode: 400, Body: "bad request"}, FailureUnknown},

		// Keyword fallback, first match wins.
		{"rate keyword", errors.New("Rate limit reached"), FailureThrottled},
		{"quota keyword", errors.New("QUOTA exhausted"), FailureThrottled},
		{"auth keyword", errors.New("Authentication failed"), FailureAuth},
		{"api key keyword", errors.New("missing API key"), FailureAuth},
		{"network keyword", errors.New("network unreachable"), FailureNetwork},
		{"connection keyword", errors.New("Connection reset by peer"), FailureNetwork},
		{"rate beats auth", errors.New("auth rate exceeded"), FailureThrottled},
		{"no keyword", errors.New("something broke"), FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestFailureKind_UserMessage(t *testing.T) {
	messages := map[FailureKind]string{
		FailureThrottled: "Too many requests. Please wait a moment and try again.",
		FailureAuth:      "Unable to connect to the service.",
		FailureNetwork:   "A network error occurred. Please check your connection.",
		FailureUnknown:   "An error occurred.",
	}
	for kind, want := range messages {
		if got := kind.UserMessage(); got != want {
			t.Errorf("%s.UserMessage() = %q, want %q", kind, got, want)
		}
	}
}
