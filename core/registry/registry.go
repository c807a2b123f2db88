package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/leofalp/aigochat/core/middleware"
	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/observability"
)

var (
	// ErrNoProviders is returned by New when no vendor could be initialized.
	ErrNoProviders = errors.New("no LLM provider configured")

	// ErrUnknownModel is returned when a model is not in the catalog.
	ErrUnknownModel = errors.New("unknown model")

	// ErrProviderUnavailable is returned when a model's vendor has no credential.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Registry holds the initialized providers and the model catalog.
type Registry struct {
	providers map[ai.Vendor]ai.Provider
	catalog   Catalog
}

type options struct {
	catalog     Catalog
	factories   map[ai.Vendor]Factory
	prebuilt    map[ai.Vendor]ai.Provider
	middlewares []middleware.Middleware
	httpClient  *http.Client
	logger      *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithCatalog replaces DefaultCatalog.
func WithCatalog(catalog Catalog) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithFactory overrides how the provider for vendor is built. It also makes
// vendors outside the built-in three usable.
func WithFactory(vendor ai.Vendor, factory Factory) Option {
	return func(o *options) {
		o.factories[vendor] = factory
	}
}

// WithProvider registers an already built provider for vendor. It takes
// precedence over any configuration for the same vendor.
func WithProvider(vendor ai.Vendor, provider ai.Provider) Option {
	return func(o *options) {
		o.prebuilt[vendor] = provider
	}
}

// WithMiddleware wraps every provider, built or pre-built, with middlewares.
// The first middleware is the outermost. Repeated calls append.
func WithMiddleware(middlewares ...middleware.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, middlewares...)
	}
}

// WithHTTPClient sets the HTTP client handed to every factory.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logger used to report skipped vendors.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New builds a registry from configs. A vendor whose APIKey is empty, or whose
// factory reports ai.ErrMissingCredential, is skipped with a warning. Any
// other construction error is returned. When no vendor remains, New returns
// ErrNoProviders.
func New(configs map[ai.Vendor]VendorConfig, opts ...Option) (*Registry, error) {
	o := &options{
		catalog:   DefaultCatalog,
		factories: defaultFactories(),
		prebuilt:  map[ai.Vendor]ai.Provider{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	providers := maps.Clone(o.prebuilt)

	for _, vendor := range slices.Sorted(maps.Keys(configs)) {
		if _, ok := providers[vendor]; ok {
			continue
		}
		cfg := configs[vendor]
		if cfg.APIKey == "" {
			o.logger.Warn("LLM provider not configured: API key not set", observability.AttrLLMProvider, string(vendor))
			continue
		}

		factory, ok := o.factories[vendor]
		if !ok {
			return nil, fmt.Errorf("registry: no factory for vendor %q", vendor)
		}
		provider, err := factory(cfg, o.httpClient)
		if errors.Is(err, ai.ErrMissingCredential) {
			o.logger.Warn("LLM provider not configured", observability.AttrLLMProvider, string(vendor), "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("registry: initialize %s: %w", vendor, err)
		}

		providers[vendor] = provider
		o.logger.Info("LLM provider configured", observability.AttrLLMProvider, string(vendor))
	}

	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	for vendor, provider := range providers {
		providers[vendor] = middleware.Wrap(provider, o.middlewares...)
	}

	return &Registry{
		providers: providers,
		catalog:   slices.Clone(o.catalog),
	}, nil
}

// IsModelAvailable reports whether model is in the catalog and its vendor is
// configured. It never fails.
func (r *Registry) IsModelAvailable(model string) bool {
	_, err := r.resolve(model)
	return err == nil
}

// StreamChat delegates to the provider serving model and returns its stream
// unchanged.
func (r *Registry) StreamChat(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error) {
	provider, err := r.resolve(model)
	if err != nil {
		return nil, err
	}
	return provider.StreamChat(ctx, messages, model)
}

func (r *Registry) resolve(model string) (ai.Provider, error) {
	vendor, ok := r.catalog.vendorOf(model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	provider, ok := r.providers[vendor]
	if !ok {
		return nil, fmt.Errorf("%w: %s (model %s)", ErrProviderUnavailable, vendor, model)
	}
	return provider, nil
}

// AvailableModels returns the catalog entries whose vendor is configured, in
// catalog order.
func (r *Registry) AvailableModels() []ai.ModelInfo {
	models := make([]ai.ModelInfo, 0, len(r.catalog))
	for _, info := range r.catalog {
		if _, ok := r.providers[info.Vendor]; ok {
			models = append(models, info)
		}
	}
	return models
}

// Vendors returns the configured vendors in sorted order.
func (r *Registry) Vendors() []ai.Vendor {
	return slices.Sorted(maps.Keys(r.providers))
}
