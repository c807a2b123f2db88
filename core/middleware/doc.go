// Package middleware wraps ai.Provider streams with cross-cutting behaviour.
//
// A Middleware receives the next StreamFunc and returns a new one. Wrap
// applies a chain to a provider; the first middleware is the outermost:
//
//	provider = middleware.Wrap(provider,
//	    middleware.NewLogging(logger, middleware.LogLevelStandard),
//	    middleware.NewTimeout(5*time.Minute),
//	)
//
// Stream middlewares that need to act when a stream ends wrap the returned
// *ai.ChatStream in a new iterator. Vendor requests are only issued when the
// stream is ranged over, so "end" means the consumer stopped ranging.
//
// No retry middleware is provided: a model maps to exactly one provider and
// a failed stream is reported to the caller as is.
package middleware
