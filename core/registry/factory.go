package registry

import (
	"net/http"

	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/ai/anthropic"
	"github.com/leofalp/aigochat/providers/ai/gemini"
	"github.com/leofalp/aigochat/providers/ai/openai"
)

// VendorConfig is the per-vendor input of New. An empty APIKey disables the
// vendor; an empty BaseURL keeps the vendor's default endpoint.
type VendorConfig struct {
	APIKey  string
	BaseURL string
}

// Factory builds a provider for one vendor. client is nil unless
// WithHTTPClient was given.
type Factory func(cfg VendorConfig, client *http.Client) (ai.Provider, error)

func defaultFactories() map[ai.Vendor]Factory {
	return map[ai.Vendor]Factory{
		ai.VendorOpenAI: newOpenAI,
		ai.VendorClaude: newAnthropic,
		ai.VendorGoogle: newGemini,
	}
}

func newOpenAI(cfg VendorConfig, client *http.Client) (ai.Provider, error) {
	var opts []openai.Option
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if client != nil {
		opts = append(opts, openai.WithHTTPClient(client))
	}
	return openai.New(cfg.APIKey, opts...)
}

func newAnthropic(cfg VendorConfig, client *http.Client) (ai.Provider, error) {
	var opts []anthropic.Option
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	if client != nil {
		opts = append(opts, anthropic.WithHTTPClient(client))
	}
	return anthropic.New(cfg.APIKey, opts...)
}

func newGemini(cfg VendorConfig, client *http.Client) (ai.Provider, error) {
	var opts []gemini.Option
	if cfg.BaseURL != "" {
		opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
	}
	if client != nil {
		opts = append(opts, gemini.WithHTTPClient(client))
	}
	return gemini.New(cfg.APIKey, opts...)
}
