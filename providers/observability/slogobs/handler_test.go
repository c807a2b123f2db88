package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(format Format, level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := NewHandler(&HandlerOptions{Format: format, Level: level, Output: &buf})
	return slog.New(handler), &buf
}

func TestHandler_Compact(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, slog.LevelDebug)
	logger.Info("chat turn completed", "llm.model", "gpt-5.2", "fragments", 42)

	output := buf.String()
	for _, want := range []string{"INFO", "chat turn completed", "→", `"llm.model":"gpt-5.2"`, `"fragments":42`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestHandler_Pretty_SortsAttributes(t *testing.T) {
	logger, buf := newTestLogger(FormatPretty, slog.LevelDebug)
	logger.Info("vendor configured", "vendor", "claude", "base_url", "https://api.anthropic.com/v1")

	output := buf.String()
	baseIdx := strings.Index(output, "├─ base_url: https://api.anthropic.com/v1")
	vendorIdx := strings.Index(output, "└─ vendor: claude")
	if baseIdx < 0 || vendorIdx < 0 || baseIdx > vendorIdx {
		t.Errorf("expected sorted tree lines, got:\n%s", output)
	}
}

func TestHandler_JSON(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, slog.LevelDebug)
	logger.Warn("persist failed", "error", errors.New("disk full"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record["level"] != "WARN" || record["msg"] != "persist failed" {
		t.Errorf("unexpected record: %v", record)
	}
	if record["error"] != "disk full" {
		t.Errorf("expected error text, got %v", record["error"])
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, slog.LevelWarn)
	logger.Info("hidden")
	logger.Error("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("INFO record should have been filtered: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("ERROR record missing: %s", buf.String())
	}
}

func TestHandler_TraceLevel(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, LevelTrace)
	logger.Log(context.Background(), LevelTrace, "fragment")

	if !strings.Contains(buf.String(), "TRACE") {
		t.Errorf("expected TRACE level, got: %s", buf.String())
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, slog.LevelInfo)
	logger.With("component", "registry").WithGroup("vendor").Info("skipped", "name", "google")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["component"] != "registry" {
		t.Errorf("expected handler attribute, got %v", record)
	}
	if record["vendor.name"] != "google" {
		t.Errorf("expected grouped key vendor.name, got %v", record)
	}
}

func TestHandler_Enabled(t *testing.T) {
	handler := NewHandler(&HandlerOptions{Level: slog.LevelInfo, Output: &bytes.Buffer{}})
	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("DEBUG should be disabled at INFO")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("ERROR should be enabled at INFO")
	}
}

func TestHandler_Colors(t *testing.T) {
	tests := []struct {
		format Format
		colors bool
		want   bool
	}{
		{FormatCompact, true, true},
		{FormatPretty, true, true},
		{FormatJSON, true, false},
		{FormatCompact, false, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.format, tt.colors), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewHandler(&HandlerOptions{Format: tt.format, Output: &buf, Colors: tt.colors}))
			logger.Error("persist failed")

			if got := strings.Contains(buf.String(), "\x1b["); got != tt.want {
				t.Errorf("ANSI escape present = %v, want %v: %q", got, tt.want, buf.String())
			}
		})
	}
}

func TestHandler_DurationAsText(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, slog.LevelInfo)
	logger.Info("llm stream completed", "duration", 1500*time.Millisecond)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["duration"] != "1.5s" {
		t.Errorf("duration = %v, want 1.5s", record["duration"])
	}
}

func TestHandler_GroupAfterAttrs(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, slog.LevelInfo)
	logger.WithGroup("http").With("method", "POST").Info("request", slog.Group("response", "status", 200))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["http.method"] != "POST" || record["http.response.status"] != float64(200) {
		t.Errorf("unexpected keys: %v", record)
	}
}
