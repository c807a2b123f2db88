package chat

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/leofalp/aigochat/providers/ai"
)

// FailureKind is the user-facing category of a stream failure.
type FailureKind string

const (
	FailureThrottled FailureKind = "throttled"
	FailureAuth      FailureKind = "auth"
	FailureNetwork   FailureKind = "network"
	FailureUnknown   FailureKind = "unknown"
)

// UserMessage returns the text shown to the caller. It never contains
// vendor-provided detail.
func (k FailureKind) UserMessage() string {
	switch k {
	case FailureThrottled:
		return "Too many requests. Please wait a moment and try again."
	case FailureAuth:
		return "Unable to connect to the service."
	case FailureNetwork:
		return "A network error occurred. Please check your connection."
	default:
		return "An error occurred."
	}
}

// Classify maps a stream failure to a FailureKind. Structured signals
// (HTTP status, vendor error type, transport errors) are consulted first;
// unrecognized errors fall back to keyword matching on the error text.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureUnknown
	}
	if kind, ok := classifyStructured(err); ok {
		return kind
	}
	return classifyText(err.Error())
}

func classifyStructured(err error) (FailureKind, bool) {
	var apiErr *ai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, statusOverloaded:
			return FailureThrottled, true
		case http.StatusUnauthorized, http.StatusForbidden:
			return FailureAuth, true
		case http.StatusRequestTimeout, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return FailureNetwork, true
		}
	}

	var streamErr *ai.StreamError
	if errors.As(err, &streamErr) {
		errorType := strings.ToLower(streamErr.Type)
		switch {
		case containsAny(errorType, "rate_limit", "quota", "overloaded", "resource_exhausted"):
			return FailureThrottled, true
		case containsAny(errorType, "authentication", "permission", "invalid_api_key", "unauthenticated"):
			return FailureAuth, true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureNetwork, true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return FailureNetwork, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureNetwork, true
	}
	return "", false
}

// statusOverloaded is Anthropic's non-standard "overloaded" status.
const statusOverloaded = 529

func classifyText(text string) FailureKind {
	text = strings.ToLower(text)
	switch {
	case containsAny(text, "rate", "quota"):
		return FailureThrottled
	case containsAny(text, "auth", "api key"):
		return FailureAuth
	case containsAny(text, "network", "connection"):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
