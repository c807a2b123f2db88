package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// eventStream writes server-sent events, flushing after each one.
type eventStream struct {
	w          http.ResponseWriter
	controller *http.ResponseController
	started    bool
}

func newEventStream(w http.ResponseWriter) *eventStream {
	return &eventStream{w: w, controller: http.NewResponseController(w)}
}

// Send writes v as a "data: <json>\n\n" frame. Headers are sent with the
// first frame.
func (s *eventStream) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if !s.started {
		header := s.w.Header()
		header.Set("Content-Type", "text/event-stream")
		header.Set("Cache-Control", "no-cache")
		header.Set("Connection", "keep-alive")
		header.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.controller.Flush()
}
