package observability

import (
	"context"
	"time"
)

// Provider records what happens during a chat turn. Vendor calls and turns
// are spans; turn outcomes and persistence failures are metrics. Plain log
// lines go through *slog.Logger directly.
type Provider interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Span is one timed unit of work, such as a single vendor stream.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

// StatusCode is the final outcome of a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Counter only goes up.
type Counter interface {
	Add(ctx context.Context, delta int64, attrs ...Attribute)
}

// Histogram records individual observations, e.g. stream durations in ms.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Attribute is a key/value pair attached to spans and metric updates.
// Keys come from semconv.go.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error stores err's message under AttrError. A nil error yields an empty
// string so callers can pass the result of a call unconditionally.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: AttrError, Value: ""}
	}
	return Attribute{Key: AttrError, Value: err.Error()}
}
