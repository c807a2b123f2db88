package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/leofalp/aigochat/internal/utils"
	"github.com/leofalp/aigochat/providers/ai"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	responsesEndpoint = "/responses"
)

// OpenAIProvider streams chat replies from the Responses API.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Option configures an OpenAIProvider.
type Option func(*OpenAIProvider)

// WithBaseURL overrides the API base URL, e.g. for a proxy or a test server.
func WithBaseURL(baseURL string) Option {
	return func(p *OpenAIProvider) {
		if baseURL != "" {
			p.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(p *OpenAIProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// New returns a provider authenticated with apiKey. An empty key fails with
// ai.ErrMissingCredential.
func New(apiKey string, opts ...Option) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set: %w", ai.ErrMissingCredential)
	}
	provider := &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider, nil
}

// NewFromEnv reads OPENAI_API_KEY and OPENAI_API_BASE_URL. Explicit options
// are applied after the environment.
func NewFromEnv(opts ...Option) (*OpenAIProvider, error) {
	opts = append([]Option{WithBaseURL(os.Getenv("OPENAI_API_BASE_URL"))}, opts...)
	return New(os.Getenv("OPENAI_API_KEY"), opts...)
}

// StreamChat implements ai.Provider.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error) {
	if len(messages) == 0 {
		return nil, ai.ErrNoMessages
	}

	request := responsesRequest{
		Model:  model,
		Input:  toInputItems(messages),
		Stream: true,
	}
	url := p.baseURL + responsesEndpoint

	open := func(ctx context.Context) (*http.Response, error) {
		return utils.OpenStream(ctx, p.client, utils.StreamRequest{
			URL:    url,
			Body:   request,
			Header: utils.BearerHeader(p.apiKey),
		})
	}
	return ai.StreamSSE(ctx, ai.VendorOpenAI, model, open, decodeEvent), nil
}
