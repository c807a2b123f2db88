package gemini

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/leofalp/aigochat/internal/utils"
	"github.com/leofalp/aigochat/providers/ai"
)

const (
	defaultBaseURL          = "https://generativelanguage.googleapis.com/v1beta/openai"
	chatCompletionsEndpoint = "/chat/completions"
)

// GeminiProvider streams chat replies from Gemini's OpenAI-compatible API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Option configures a GeminiProvider.
type Option func(*GeminiProvider)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(p *GeminiProvider) {
		if baseURL != "" {
			p.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(p *GeminiProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// New returns a provider authenticated with apiKey. An empty key fails with
// ai.ErrMissingCredential.
func New(apiKey string, opts ...Option) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY is not set: %w", ai.ErrMissingCredential)
	}
	provider := &GeminiProvider{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider, nil
}

// NewFromEnv reads GEMINI_API_KEY, falling back to GOOGLE_API_KEY, and
// GEMINI_API_BASE_URL.
func NewFromEnv(opts ...Option) (*GeminiProvider, error) {
	opts = append([]Option{WithBaseURL(os.Getenv("GEMINI_API_BASE_URL"))}, opts...)
	return New(cmp.Or(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")), opts...)
}

// StreamChat implements ai.Provider.
func (p *GeminiProvider) StreamChat(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error) {
	if len(messages) == 0 {
		return nil, ai.ErrNoMessages
	}

	request := chatCompletionsRequest{
		Model:    model,
		Messages: toChatMessages(messages),
		Stream:   true,
	}
	url := p.baseURL + chatCompletionsEndpoint

	open := func(ctx context.Context) (*http.Response, error) {
		return utils.OpenStream(ctx, p.client, utils.StreamRequest{
			URL:    url,
			Body:   request,
			Header: utils.BearerHeader(p.apiKey),
		})
	}
	return ai.StreamSSE(ctx, ai.VendorGoogle, model, open, decodeChunk), nil
}
