package observability

import (
	"errors"
	"testing"
	"time"
)

func TestAttributeConstructors(t *testing.T) {
	tests := []struct {
		name      string
		attr      Attribute
		wantKey   string
		wantValue any
	}{
		{"string", String(AttrLLMModel, "gpt-5.2"), AttrLLMModel, "gpt-5.2"},
		{"int", Int(AttrHTTPStatusCode, 429), AttrHTTPStatusCode, 429},
		{"bool", Bool(AttrChatPersisted, true), AttrChatPersisted, true},
		{"duration", Duration(AttrDuration, 2*time.Second), AttrDuration, 2 * time.Second},
		{"error", Error(errors.New("boom")), AttrError, "boom"},
		{"nil error", Error(nil), AttrError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value != tt.wantValue {
				t.Errorf("value = %v, want %v", tt.attr.Value, tt.wantValue)
			}
		})
	}
}

func TestStatusCode_Values(t *testing.T) {
	if StatusUnset != 0 || StatusOK != 1 || StatusError != 2 {
		t.Errorf("unexpected status codes: unset=%d ok=%d error=%d", StatusUnset, StatusOK, StatusError)
	}
}
