package chat

import (
	"encoding/json"
	"testing"
)

func TestEvent_MarshalJSON(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{Event{Type: EventContent, Content: "He"}, `{"content":"He"}`},
		{Event{Type: EventContent}, `{"content":""}`},
		{Event{Type: EventError, Error: "An error occurred."}, `{"error":"An error occurred."}`},
		{Event{Type: EventDone}, `{"done":true}`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.event)
		if err != nil {
			t.Fatalf("marshal %+v: %v", tt.event, err)
		}
		if string(data) != tt.want {
			t.Errorf("marshal %+v = %s, want %s", tt.event, data, tt.want)
		}
	}
}
