package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/aigochat/providers/observability"
)

// maxErrorBodySize caps how much of a rejected response is read.
const maxErrorBodySize int64 = 1 << 20

// StreamRequest describes one streaming vendor call. Header is applied on top
// of the JSON and SSE defaults.
type StreamRequest struct {
	URL    string
	Body   any
	Header http.Header
}

// BearerHeader returns the Authorization header used by OpenAI-style APIs.
func BearerHeader(apiKey string) http.Header {
	h := make(http.Header)
	if apiKey != "" {
		h.Set("Authorization", "Bearer "+apiKey)
	}
	return h
}

// HTTPStatusError is returned by [OpenStream] for a non-2xx answer.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateStringDefault(e.Body))
}

// OpenStream POSTs req.Body as JSON and returns the response with its body
// unread. The caller closes it. Rejected requests come back as
// *HTTPStatusError with the body already drained and closed.
//
// If ctx carries a span, the request and its outcome are added to it as
// events.
func OpenStream(ctx context.Context, client *http.Client, req StreamRequest) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	span := observability.SpanFromContext(ctx)

	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	for key, values := range req.Header {
		httpReq.Header[key] = values
	}

	addEvent(span, "http.request",
		observability.String(observability.AttrHTTPURL, req.URL),
		observability.Int(observability.AttrHTTPRequestBodySize, len(payload)),
	)

	start := time.Now()
	resp, err := client.Do(httpReq)
	elapsed := observability.Duration(observability.AttrHTTPDuration, time.Since(start))
	if err != nil {
		addEvent(span, "http.error", observability.Error(err), elapsed)
		return nil, fmt.Errorf("send request: %w", err)
	}

	status := observability.Int(observability.AttrHTTPStatusCode, resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer CloseWithLog(resp.Body)
		addEvent(span, "http.rejected", status, elapsed)
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if readErr != nil {
			body = fmt.Appendf(nil, "unreadable body: %v", readErr)
		}
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	addEvent(span, "http.response", status, elapsed)
	return resp, nil
}

func addEvent(span observability.Span, name string, attrs ...observability.Attribute) {
	if span != nil {
		span.AddEvent(name, attrs...)
	}
}

// CloseWithLog is for deferred closes whose error has nowhere to go.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("Close failed", "error", err)
	}
}
