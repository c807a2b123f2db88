package ai

import "context"

// Provider is satisfied by every vendor adapter.
//
// StreamChat validates its input and returns without touching the network.
// The vendor request is issued when the returned stream is first iterated,
// so construction errors and transport errors arrive on different paths:
// the former synchronously, the latter through the stream.
type Provider interface {
	StreamChat(ctx context.Context, messages []Message, model string) (*ChatStream, error)
}
