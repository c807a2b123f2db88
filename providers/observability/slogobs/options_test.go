package slogobs

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestApplyOptions_Defaults(t *testing.T) {
	s := applyOptions()
	if s.format != FormatCompact || s.level != slog.LevelInfo {
		t.Errorf("unexpected defaults: format=%v level=%v", s.format, s.level)
	}
	if s.output != os.Stdout || s.colors || s.logger != nil {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestApplyOptions_Overrides(t *testing.T) {
	buf := &bytes.Buffer{}
	s := applyOptions(
		WithFormat(FormatPretty),
		WithLevel(slog.LevelError),
		WithOutput(buf),
		WithColors(true),
		WithAttrs(slog.String("service", "aigochat")),
		WithAttrs(slog.String("version", "dev")),
	)

	if s.format != FormatPretty || s.level != slog.LevelError || s.output != buf || !s.colors {
		t.Errorf("options not applied: %+v", s)
	}
	if len(s.attrs) != 2 {
		t.Errorf("expected attrs to accumulate, got %v", s.attrs)
	}
}

func TestNewLogger_WithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(
		WithFormat(FormatJSON),
		WithLevel(slog.LevelInfo),
		WithOutput(buf),
		WithAttrs(slog.String("service", "aigochat")),
	)
	logger.Info("Starting aigochat")

	if !strings.Contains(buf.String(), `"service":"aigochat"`) {
		t.Errorf("base attribute missing from %q", buf.String())
	}
}

func TestWithLogger_BypassesHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if got := NewLogger(WithLogger(logger), WithAttrs(slog.String("ignored", "x"))); got != logger {
		t.Error("NewLogger should return the injected logger")
	}
	if got := New(WithLogger(logger)).Logger(); got != logger {
		t.Error("Observer should log through the injected logger")
	}
}
