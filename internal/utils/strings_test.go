package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world", 5, "hello... (6 more runes)"},
		{"multibyte fits", "città", 5, "città"},
		{"multibyte cut", "caffè latte", 5, "caffè... (6 more runes)"},
		{"cjk", "你好世界", 2, "你好... (2 more runes)"},
		{"empty", "", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateString(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("result is not valid UTF-8: %q", got)
			}
		})
	}
}

func TestTruncateString_NonPositiveUsesDefault(t *testing.T) {
	input := strings.Repeat("é", DefaultMaxStringLength+3)
	for _, maxLen := range []int{0, -1} {
		got := TruncateString(input, maxLen)
		if !strings.HasPrefix(got, strings.Repeat("é", DefaultMaxStringLength)+"...") {
			t.Errorf("maxLen %d: expected cut at the default length", maxLen)
		}
		if !strings.HasSuffix(got, "(3 more runes)") {
			t.Errorf("maxLen %d: unexpected suffix in %q", maxLen, got[len(got)-20:])
		}
	}
}

func TestTruncateStringDefault(t *testing.T) {
	body := `{"error":{"message":"quota exceeded"}}`
	if got := TruncateStringDefault(body); got != body {
		t.Errorf("short body changed: %q", got)
	}
	if got := TruncateStringDefault(strings.Repeat("x", 2*DefaultMaxStringLength)); !strings.HasSuffix(got, "(500 more runes)") {
		t.Errorf("long body not truncated: ...%q", got[len(got)-30:])
	}
}
