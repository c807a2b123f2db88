package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/leofalp/aigochat/core/middleware"
	"github.com/leofalp/aigochat/providers/ai"
)

// stubProvider records the last call and replays fixed fragments.
type stubProvider struct {
	fragments []string
	gotModel  string
	gotCount  int
}

func (p *stubProvider) StreamChat(_ context.Context, messages []ai.Message, model string) (*ai.ChatStream, error) {
	p.gotModel = model
	p.gotCount = len(messages)
	return ai.NewStaticStream(p.fragments, nil), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubFactory(provider ai.Provider) Factory {
	return func(VendorConfig, *http.Client) (ai.Provider, error) {
		return provider, nil
	}
}

func TestNew_SkipsVendorsWithoutKey(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	reg, err := New(map[ai.Vendor]VendorConfig{
		ai.VendorOpenAI: {APIKey: "sk-test"},
		ai.VendorClaude: {},
		ai.VendorGoogle: {APIKey: ""},
	},
		WithFactory(ai.VendorOpenAI, stubFactory(&stubProvider{})),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := reg.Vendors(); !slices.Equal(got, []ai.Vendor{ai.VendorOpenAI}) {
		t.Fatalf("expected only openai, got %v", got)
	}
	if !strings.Contains(logs.String(), "llm.provider=claude") || !strings.Contains(logs.String(), "llm.provider=google") {
		t.Fatalf("expected a warning per skipped vendor, got %q", logs.String())
	}
}

func TestNew_NoProviders(t *testing.T) {
	_, err := New(map[ai.Vendor]VendorConfig{
		ai.VendorOpenAI: {},
		ai.VendorClaude: {},
	}, WithLogger(quietLogger()))
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}

	_, err = New(nil, WithLogger(quietLogger()))
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders for empty config, got %v", err)
	}
}

func TestNew_FactoryMissingCredentialIsSkipped(t *testing.T) {
	failing := func(VendorConfig, *http.Client) (ai.Provider, error) {
		return nil, fmt.Errorf("openai: %w", ai.ErrMissingCredential)
	}

	_, err := New(map[ai.Vendor]VendorConfig{ai.VendorOpenAI: {APIKey: "x"}},
		WithFactory(ai.VendorOpenAI, failing),
		WithLogger(quietLogger()),
	)
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestNew_FactoryErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	failing := func(VendorConfig, *http.Client) (ai.Provider, error) {
		return nil, boom
	}

	_, err := New(map[ai.Vendor]VendorConfig{ai.VendorOpenAI: {APIKey: "x"}},
		WithFactory(ai.VendorOpenAI, failing),
		WithLogger(quietLogger()),
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestNew_UnknownVendorWithoutFactory(t *testing.T) {
	_, err := New(map[ai.Vendor]VendorConfig{"mistral": {APIKey: "x"}}, WithLogger(quietLogger()))
	if err == nil {
		t.Fatal("expected error for a vendor without factory")
	}
}

func TestNew_DefaultFactoriesBuildVendors(t *testing.T) {
	reg, err := New(map[ai.Vendor]VendorConfig{
		ai.VendorOpenAI: {APIKey: "sk-openai"},
		ai.VendorClaude: {APIKey: "sk-ant"},
		ai.VendorGoogle: {APIKey: "g-key", BaseURL: "http://localhost:1"},
	}, WithLogger(quietLogger()), WithHTTPClient(http.DefaultClient))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []ai.Vendor{ai.VendorClaude, ai.VendorGoogle, ai.VendorOpenAI}
	if got := reg.Vendors(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := len(reg.AvailableModels()); got != len(DefaultCatalog) {
		t.Fatalf("expected every catalog model, got %d", got)
	}
}

func TestIsModelAvailable(t *testing.T) {
	reg, err := New(nil,
		WithProvider(ai.VendorClaude, &stubProvider{}),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		model string
		want  bool
	}{
		{model: "claude-sonnet-4-5", want: true},
		{model: "claude-haiku-4-5", want: true},
		{model: "gpt-5.2", want: false},
		{model: "gemini-3-pro-preview", want: false},
		{model: "not-a-model", want: false},
		{model: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := reg.IsModelAvailable(tt.model); got != tt.want {
				t.Errorf("IsModelAvailable(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestStreamChat_Dispatch(t *testing.T) {
	claude := &stubProvider{fragments: []string{"He", "llo"}}
	openai := &stubProvider{fragments: []string{"nope"}}
	reg, err := New(nil,
		WithProvider(ai.VendorClaude, claude),
		WithProvider(ai.VendorOpenAI, openai),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stream, err := reg.StreamChat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, "claude-opus-4-5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, err := stream.Collect()
	if err != nil || text != "Hello" {
		t.Fatalf("expected Hello, got %q (%v)", text, err)
	}
	if claude.gotModel != "claude-opus-4-5" || claude.gotCount != 1 {
		t.Fatalf("claude provider not called as expected: %+v", claude)
	}
	if openai.gotModel != "" {
		t.Fatal("openai provider must not be called")
	}
}

func TestStreamChat_Errors(t *testing.T) {
	reg, err := New(nil, WithProvider(ai.VendorClaude, &stubProvider{}), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = reg.StreamChat(context.Background(), nil, "unknown")
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}

	_, err = reg.StreamChat(context.Background(), nil, "gpt-5.2")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestAvailableModels_CatalogOrder(t *testing.T) {
	reg, err := New(nil,
		WithProvider(ai.VendorClaude, &stubProvider{}),
		WithProvider(ai.VendorOpenAI, &stubProvider{}),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, info := range reg.AvailableModels() {
		ids = append(ids, info.ID)
	}
	want := []string{"gpt-5.2", "gpt-5.2-pro", "claude-opus-4-5", "claude-sonnet-4-5", "claude-haiku-4-5"}
	if !slices.Equal(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestWithCatalog(t *testing.T) {
	reg, err := New(nil,
		WithProvider("local", &stubProvider{}),
		WithCatalog(Catalog{{ID: "llama", Name: "Llama", Vendor: "local"}}),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reg.IsModelAvailable("llama") || reg.IsModelAvailable("gpt-5.2") {
		t.Fatal("custom catalog not applied")
	}
}

// TestStreamChat_EndToEndOpenAI wires the default OpenAI factory to a fake
// vendor endpoint and checks that fragments flow through the registry.
func TestStreamChat_EndToEndOpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"response.output_text.delta\",\"delta\":\"Hi\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"response.output_text.delta\",\"delta\":\" there\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"response.completed\"}\n\n")
	}))
	defer server.Close()

	reg, err := New(map[ai.Vendor]VendorConfig{
		ai.VendorOpenAI: {APIKey: "sk-test", BaseURL: server.URL},
	}, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stream, err := reg.StreamChat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, "gpt-5.2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if text != "Hi there" {
		t.Fatalf("expected %q, got %q", "Hi there", text)
	}
}

func TestWithMiddleware_WrapsEveryProvider(t *testing.T) {
	var seen []string
	tag := func(next middleware.StreamFunc) middleware.StreamFunc {
		return func(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error) {
			seen = append(seen, model)
			return next(ctx, messages, model)
		}
	}

	reg, err := New(map[ai.Vendor]VendorConfig{ai.VendorOpenAI: {APIKey: "sk"}},
		WithFactory(ai.VendorOpenAI, stubFactory(&stubProvider{fragments: []string{"a"}})),
		WithProvider(ai.VendorClaude, &stubProvider{fragments: []string{"b"}}),
		WithMiddleware(tag),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, model := range []string{"gpt-5.2", "claude-haiku-4-5"} {
		stream, err := reg.StreamChat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, model)
		if err != nil {
			t.Fatalf("StreamChat(%s): %v", model, err)
		}
		if _, err := stream.Collect(); err != nil {
			t.Fatalf("Collect(%s): %v", model, err)
		}
	}

	if !slices.Equal(seen, []string{"gpt-5.2", "claude-haiku-4-5"}) {
		t.Errorf("middleware saw %v", seen)
	}
}
