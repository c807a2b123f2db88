// Package observability is the narrow tracing and metrics surface of the chat
// backend. A [Provider] opens spans and hands out counters and histograms;
// slogobs is the only implementation.
//
// The orchestrator puts its Provider in the request context with
// [ContextWithObserver]. Vendor streams pick it up with [ObserverFromContext]
// and the HTTP and storage layers add events to whatever span
// [SpanFromContext] returns. Both lookups return nil when nothing is
// attached, and callers skip instrumentation in that case.
//
// Attribute keys, span names and metric names live in semconv.go.
package observability
