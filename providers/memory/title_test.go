package memory

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/aigochat/providers/ai"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short", content: "hello", want: "hello"},
		{name: "trimmed", content: "  hello  ", want: "hello"},
		{name: "newlines collapsed", content: "line one\nline two\r\nthree\rfour", want: "line one line two three four"},
		{name: "blank keeps placeholder", content: " \n\t ", want: DefaultConversationTitle},
		{name: "empty keeps placeholder", content: "", want: DefaultConversationTitle},
		{name: "cut to 40", content: strings.Repeat("a", 50), want: strings.Repeat("a", 40)},
		{name: "cut counts runes", content: strings.Repeat("日", 45), want: strings.Repeat("日", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.content); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short"); got != "short" {
		t.Errorf("Preview(short) = %q", got)
	}

	long := strings.Repeat("é", 100)
	if got := Preview(long); got != strings.Repeat("é", 80) {
		t.Errorf("Preview kept %d runes, want 80", len([]rune(got)))
	}
}

func TestNewMessage_Validate(t *testing.T) {
	valid := NewMessage{ConversationID: "c1", Role: ai.RoleUser, Content: "hi"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]NewMessage{
		"missing conversation": {Role: ai.RoleUser},
		"system role":          {ConversationID: "c1", Role: ai.RoleSystem},
		"unknown role":         {ConversationID: "c1", Role: "tool"},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			err := msg.Validate()
			if err == nil || !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
		})
	}
}

func TestNotBefore(t *testing.T) {
	floor := time.Date(2025, 1, 1, 12, 0, 5, 0, time.UTC)

	if got := NotBefore(floor.Add(time.Second), floor); !got.Equal(floor.Add(time.Second)) {
		t.Errorf("NotBefore(later) = %v, want the clock reading", got)
	}
	if got := NotBefore(floor.Add(-4*time.Second), floor); !got.Equal(floor) {
		t.Errorf("NotBefore(earlier) = %v, want %v", got, floor)
	}
	if got := NotBefore(floor, floor); !got.Equal(floor) {
		t.Errorf("NotBefore(equal) = %v, want %v", got, floor)
	}
}
