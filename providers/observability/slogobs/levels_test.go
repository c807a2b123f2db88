package slogobs

import (
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"trace", LevelTrace},
		{"DeBuG", slog.LevelDebug},
		{"  debug  ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelName(t *testing.T) {
	for _, name := range []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"} {
		if got := LevelName(ParseLogLevel(name)); got != name {
			t.Errorf("round trip of %q gave %q", name, got)
		}
	}
	if got := LevelName(slog.LevelDebug + 2); got != "DEBUG" {
		t.Errorf("intermediate level = %q, want DEBUG", got)
	}
	if got := LevelName(slog.LevelError + 4); got != "ERROR" {
		t.Errorf("level above ERROR = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"compact": FormatCompact,
		"PRETTY":  FormatPretty,
		" json ":  FormatJSON,
		"":        FormatCompact,
		"yaml":    FormatCompact,
	}
	for input, want := range tests {
		if got := ParseFormat(input); got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", input, got, want)
		}
	}
}
