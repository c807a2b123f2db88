package middleware

import (
	"context"
	"time"

	"github.com/leofalp/aigochat/providers/ai"
)

// NewTimeout bounds the whole lifetime of a stream, from the call to the
// last fragment, by timeout. A non-positive timeout disables the middleware.
//
// The deadline context is released when the stream ends, fails, or the
// consumer stops ranging. A caller deadline that is shorter still wins.
func NewTimeout(timeout time.Duration) Middleware {
	return func(next StreamFunc) StreamFunc {
		if timeout <= 0 {
			return next
		}
		return func(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			stream, err := next(ctx, messages, model)
			if err != nil {
				cancel()
				return nil, err
			}

			return ai.NewChatStream(func(yield func(string, error) bool) {
				defer cancel()
				for fragment, err := range stream.Iter() {
					if !yield(fragment, err) || err != nil {
						return
					}
				}
			}), nil
		}
	}
}
