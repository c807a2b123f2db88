package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/leofalp/aigochat/internal/utils"
	"github.com/leofalp/aigochat/providers/ai"
)

const (
	// defaultBaseURL is the canonical base URL for Anthropic's Messages API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	messagesEndpoint = "/messages"

	// anthropicVersion pins the wire format independently of the URL.
	anthropicVersion = "2023-06-01"

	defaultMaxTokens = 4096
)

// AnthropicProvider streams chat replies from the Messages API.
type AnthropicProvider struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	maxTokens int
}

// Option configures an AnthropicProvider.
type Option func(*AnthropicProvider)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(p *AnthropicProvider) {
		if baseURL != "" {
			p.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(p *AnthropicProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithMaxTokens sets the max_tokens request field. Non-positive values are ignored.
func WithMaxTokens(maxTokens int) Option {
	return func(p *AnthropicProvider) {
		if maxTokens > 0 {
			p.maxTokens = maxTokens
		}
	}
}

// New returns a provider authenticated with apiKey. An empty key fails with
// ai.ErrMissingCredential.
func New(apiKey string, opts ...Option) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set: %w", ai.ErrMissingCredential)
	}
	provider := &AnthropicProvider{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		client:    &http.Client{},
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider, nil
}

// NewFromEnv reads ANTHROPIC_API_KEY and ANTHROPIC_API_BASE_URL.
func NewFromEnv(opts ...Option) (*AnthropicProvider, error) {
	opts = append([]Option{WithBaseURL(os.Getenv("ANTHROPIC_API_BASE_URL"))}, opts...)
	return New(os.Getenv("ANTHROPIC_API_KEY"), opts...)
}

// header carries the credential in x-api-key instead of Authorization.
func (p *AnthropicProvider) header() http.Header {
	h := make(http.Header)
	h.Set("x-api-key", p.apiKey)
	h.Set("anthropic-version", anthropicVersion)
	return h
}

// StreamChat implements ai.Provider.
//
// Anthropic SSE lifecycle:
//
//	message_start → content_block_start → content_block_delta(s) →
//	content_block_stop → message_delta → message_stop
func (p *AnthropicProvider) StreamChat(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error) {
	if len(messages) == 0 {
		return nil, ai.ErrNoMessages
	}

	system, converted := convertMessages(messages)
	request := messagesRequest{
		Model:     model,
		Messages:  converted,
		System:    system,
		MaxTokens: p.maxTokens,
		Stream:    true,
	}
	url := p.baseURL + messagesEndpoint

	open := func(ctx context.Context) (*http.Response, error) {
		return utils.OpenStream(ctx, p.client, utils.StreamRequest{
			URL:    url,
			Body:   request,
			Header: p.header(),
		})
	}
	return ai.StreamSSE(ctx, ai.VendorClaude, model, open, decodeEvent), nil
}
