package ai

import (
	"errors"
	"fmt"

	"github.com/leofalp/aigochat/internal/utils"
)

var (
	// ErrMissingCredential is returned by vendor constructors when no API key is available.
	ErrMissingCredential = errors.New("missing credential")

	// ErrNoMessages is returned by StreamChat for an empty message list.
	ErrNoMessages = errors.New("at least one message is required")

	// ErrStreamConsumed is yielded when a ChatStream is iterated a second time.
	ErrStreamConsumed = errors.New("chat stream already consumed")
)

// APIError is a vendor request rejected with a non-2xx HTTP status.
type APIError struct {
	Vendor     Vendor
	StatusCode int
	Body       string
	err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Vendor, e.StatusCode, utils.TruncateStringDefault(e.Body))
}

func (e *APIError) Unwrap() error {
	return e.err
}

// StreamError is an explicit error event reported inside a vendor stream.
// Type holds the vendor's error type or code, Message its description.
type StreamError struct {
	Vendor  Vendor
	Type    string
	Message string
}

func (e *StreamError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s stream error: %s", e.Vendor, e.Message)
	}
	return fmt.Sprintf("%s stream error (%s): %s", e.Vendor, e.Type, e.Message)
}

// WrapRequestError converts the error returned by utils.OpenStream into the
// vendor-tagged form: status failures become *APIError, everything else is
// wrapped with the vendor name and keeps its chain (url.Error, context errors).
func WrapRequestError(vendor Vendor, err error) error {
	if err == nil {
		return nil
	}
	var statusErr *utils.HTTPStatusError
	if errors.As(err, &statusErr) {
		return &APIError{Vendor: vendor, StatusCode: statusErr.StatusCode, Body: statusErr.Body, err: err}
	}
	return fmt.Errorf("%s request failed: %w", vendor, err)
}
