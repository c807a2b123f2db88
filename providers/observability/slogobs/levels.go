package slogobs

import (
	"log/slog"
	"strings"
)

// LevelTrace is below slog.LevelDebug. Per-fragment records use it.
const LevelTrace = slog.LevelDebug - 4

// Format selects how Handler renders a record.
type Format string

const (
	// FormatCompact prints one line per record with the attributes as a JSON
	// object after an arrow:
	//	2026-01-02 10:40:35  INFO Chat turn finished → {"chat.outcome":"completed"}
	FormatCompact Format = "compact"
	// FormatPretty prints each attribute on its own line under the message.
	FormatPretty Format = "pretty"
	// FormatJSON prints one JSON object per record.
	FormatJSON Format = "json"
)

func (f Format) String() string { return string(f) }

// ParseFormat is case-insensitive. Anything unrecognised is FormatCompact.
func ParseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPretty, FormatJSON:
		return f
	default:
		return FormatCompact
	}
}

var levelNames = map[string]slog.Level{
	"TRACE":   LevelTrace,
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARN":    slog.LevelWarn,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
}

// ParseLogLevel accepts the names printed by LevelName plus WARNING, in any
// case. Anything else is INFO.
func ParseLogLevel(s string) slog.Level {
	if level, ok := levelNames[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return level
	}
	return slog.LevelInfo
}

// LevelName buckets level into TRACE, DEBUG, INFO, WARN or ERROR. Levels in
// between round down, so DEBUG+2 prints as DEBUG.
func LevelName(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
