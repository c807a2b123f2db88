package slogobs

import (
	"io"
	"log/slog"
	"os"
)

// Option configures New and NewLogger.
type Option func(*settings)

type settings struct {
	format Format
	level  slog.Level
	output io.Writer
	colors bool
	attrs  []slog.Attr

	// logger replaces the handler built from the fields above.
	logger *slog.Logger
}

func WithFormat(format Format) Option {
	return func(s *settings) { s.format = format }
}

func WithLevel(level slog.Level) Option {
	return func(s *settings) { s.level = level }
}

// WithOutput defaults to os.Stdout.
func WithOutput(output io.Writer) Option {
	return func(s *settings) { s.output = output }
}

// WithColors turns on ANSI colors for the compact and pretty formats.
// JSON output ignores it.
func WithColors(enabled bool) Option {
	return func(s *settings) { s.colors = enabled }
}

// WithAttrs attaches attrs to every record, e.g. the service name and build
// version. Repeated calls accumulate.
func WithAttrs(attrs ...slog.Attr) Option {
	return func(s *settings) { s.attrs = append(s.attrs, attrs...) }
}

// WithLogger reuses an existing logger as is. Format, level, output, colors
// and attrs are ignored when it is set.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

func applyOptions(opts ...Option) *settings {
	s := &settings{
		format: FormatCompact,
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
