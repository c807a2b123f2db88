package middleware

import (
	"context"

	"github.com/leofalp/aigochat/providers/ai"
)

// StreamFunc starts a provider stream. It has the shape of ai.Provider.StreamChat.
type StreamFunc func(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error)

// Middleware intercepts stream requests and may wrap the returned stream.
type Middleware func(next StreamFunc) StreamFunc

// Wrap returns a provider that runs every call through middlewares, with
// middlewares[0] outermost. Without middlewares it returns provider itself.
func Wrap(provider ai.Provider, middlewares ...Middleware) ai.Provider {
	if len(middlewares) == 0 {
		return provider
	}

	chain := StreamFunc(provider.StreamChat)
	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i](chain)
	}
	return wrapped{chain}
}

type wrapped struct {
	stream StreamFunc
}

func (w wrapped) StreamChat(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error) {
	return w.stream(ctx, messages, model)
}
