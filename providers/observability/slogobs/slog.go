package slogobs

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leofalp/aigochat/providers/observability"
)

var _ observability.Provider = (*Observer)(nil)

// Observer reports spans and metric updates as DEBUG records, so they only
// show up once the log level is lowered. Span errors are logged at ERROR.
type Observer struct {
	logger     *slog.Logger
	counters   sync.Map // name -> *counter
	histograms sync.Map // name -> *histogram
}

// New builds an Observer that logs through a Handler configured by opts.
//
//	observer := slogobs.New(slogobs.WithLogger(logger))
func New(opts ...Option) *Observer {
	return &Observer{logger: newLogger(applyOptions(opts...))}
}

// NewLogger returns the logger an Observer built with the same opts would use.
func NewLogger(opts ...Option) *slog.Logger {
	return newLogger(applyOptions(opts...))
}

func newLogger(s *settings) *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	var handler slog.Handler = NewHandler(&HandlerOptions{
		Format: s.format,
		Level:  s.level,
		Output: s.output,
		Colors: s.colors,
	})
	if len(s.attrs) > 0 {
		handler = handler.WithAttrs(s.attrs)
	}
	return slog.New(handler)
}

func (o *Observer) Logger() *slog.Logger { return o.logger }

// StartSpan returns ctx with the new span attached, so code further down can
// reach it through observability.SpanFromContext.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	s := &span{name: name, start: time.Now(), logger: o.logger, attrs: attrs}
	s.log(ctx, slog.LevelDebug, "Span started", "span.start", attrs)
	return observability.ContextWithSpan(ctx, s), s
}

func (o *Observer) Counter(name string) observability.Counter {
	c, _ := o.counters.LoadOrStore(name, &counter{name: name, logger: o.logger})
	return c.(*counter)
}

func (o *Observer) Histogram(name string) observability.Histogram {
	h, _ := o.histograms.LoadOrStore(name, &histogram{name: name, logger: o.logger})
	return h.(*histogram)
}

type span struct {
	name   string
	start  time.Time
	logger *slog.Logger

	mu    sync.Mutex
	attrs []observability.Attribute
}

func (s *span) log(ctx context.Context, level slog.Level, msg, event string, attrs []observability.Attribute) {
	s.logger.LogAttrs(ctx, level, msg, withAttrs([]slog.Attr{
		slog.String("span", s.name),
		slog.String("event", event),
	}, attrs)...)
}

func (s *span) End() {
	s.mu.Lock()
	attrs := append(slices.Clip(s.attrs), observability.Duration("duration", time.Since(s.start)))
	s.mu.Unlock()
	s.log(context.Background(), slog.LevelDebug, "Span ended", "span.end", attrs)
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *span) SetStatus(code observability.StatusCode, description string) {
	status := "unset"
	switch code {
	case observability.StatusOK:
		status = "ok"
	case observability.StatusError:
		status = "error"
	}
	attrs := []observability.Attribute{observability.String(observability.AttrStatus, status)}
	if description != "" {
		attrs = append(attrs, observability.String(observability.AttrStatusDescription, description))
	}
	s.SetAttributes(attrs...)
}

func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.SetAttributes(observability.Error(err))
	s.log(context.Background(), slog.LevelError, "Span error", "error", []observability.Attribute{observability.Error(err)})
}

func (s *span) AddEvent(name string, attrs ...observability.Attribute) {
	s.log(context.Background(), slog.LevelDebug, "Span event", name, attrs)
}

type counter struct {
	name   string
	logger *slog.Logger
	total  atomic.Int64
}

// Value is the running total since the Observer was created.
func (c *counter) Value() int64 { return c.total.Load() }

func (c *counter) Add(ctx context.Context, delta int64, attrs ...observability.Attribute) {
	total := c.total.Add(delta)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "Counter", withAttrs([]slog.Attr{
		slog.String("metric", c.name),
		slog.Int64("value", total),
		slog.Int64("delta", delta),
	}, attrs)...)
}

type histogram struct {
	name   string
	logger *slog.Logger
}

func (h *histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.logger.LogAttrs(ctx, slog.LevelDebug, "Histogram", withAttrs([]slog.Attr{
		slog.String("metric", h.name),
		slog.Float64("value", value),
	}, attrs)...)
}

func withAttrs(base []slog.Attr, attrs []observability.Attribute) []slog.Attr {
	for _, a := range attrs {
		base = append(base, slog.Any(a.Key, a.Value))
	}
	return base
}
