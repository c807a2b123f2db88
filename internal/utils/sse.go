package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxSSELine is the longest line SSEReader accepts. bufio.Scanner's 64 KiB
// default is too small for some vendor payloads.
const maxSSELine = 1 << 20

// SSEEvent is one dispatched Server-Sent Event. Type is the value of the last
// "event:" field, empty when the vendor sends none.
type SSEEvent struct {
	Type string
	Data string
}

// SSEReader reads events from a text/event-stream body. Comments and the
// id/retry fields are dropped. A "data: [DONE]" line ends the stream.
type SSEReader struct {
	lines *bufio.Scanner
	done  bool
}

func NewSSEReader(r io.Reader) *SSEReader {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxSSELine)
	return &SSEReader{lines: lines}
}

// Next returns the next event that carries data, or io.EOF once the body or
// the [DONE] marker is reached. Multiple data lines are joined with "\n".
func (r *SSEReader) Next() (SSEEvent, error) {
	if r.done {
		return SSEEvent{}, io.EOF
	}

	var (
		event SSEEvent
		data  []string
	)
	for r.lines.Scan() {
		line := r.lines.Text()
		if line == "" {
			if len(data) == 0 {
				event = SSEEvent{}
				continue
			}
			event.Data = strings.Join(data, "\n")
			return event, nil
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "":
			// comment
		case "event":
			event.Type = value
		case "data":
			if strings.TrimSpace(value) == "[DONE]" {
				r.done = true
				return SSEEvent{}, io.EOF
			}
			data = append(data, value)
		}
	}
	if err := r.lines.Err(); err != nil {
		return SSEEvent{}, fmt.Errorf("read event stream: %w", err)
	}

	r.done = true
	if len(data) > 0 {
		event.Data = strings.Join(data, "\n")
		return event, nil
	}
	return SSEEvent{}, io.EOF
}
