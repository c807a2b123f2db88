package observability

import "context"

type (
	spanKey     struct{}
	observerKey struct{}
)

// SpanFromContext returns the innermost span attached to ctx, or nil.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(Span)
	return span
}

func ContextWithSpan(ctx context.Context, span Span) context.Context {
	return context.WithValue(orBackground(ctx), spanKey{}, span)
}

// ObserverFromContext returns the Provider attached by ContextWithObserver,
// or nil.
func ObserverFromContext(ctx context.Context) Provider {
	if ctx == nil {
		return nil
	}
	observer, _ := ctx.Value(observerKey{}).(Provider)
	return observer
}

func ContextWithObserver(ctx context.Context, observer Provider) context.Context {
	return context.WithValue(orBackground(ctx), observerKey{}, observer)
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
