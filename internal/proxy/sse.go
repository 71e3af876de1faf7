package proxy

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// sseEvent is one parsed Server-Sent Event frame: the Anthropic stream
// always sets `event:`, but the parser tolerates a bare `data:`-only
// frame (eventType "") the same as the upstream SSE spec allows.
type sseEvent struct {
	eventType string
	data      string
}

// readSSEEvent reads one SSE frame from reader, returning io.EOF once the
// stream is exhausted. Grounded on internal/llm/openai/stream.go's
// readSSEEvent (bufio line scan, blank-line-terminated frame), extended
// to also capture the `event:` field the Anthropic Messages API sets.
func readSSEEvent(reader *bufio.Reader) (sseEvent, error) {
	var evt sseEvent
	var data strings.Builder
	sawAny := false

	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return sseEvent{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if !sawAny {
				if errors.Is(err, io.EOF) {
					return sseEvent{}, io.EOF
				}
				continue
			}
			evt.data = strings.TrimSuffix(data.String(), "\n")
			return evt, nil
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			evt.eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			sawAny = true
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			data.WriteByte('\n')
			sawAny = true
		}

		if errors.Is(err, io.EOF) {
			if !sawAny {
				return sseEvent{}, io.EOF
			}
			evt.data = strings.TrimSuffix(data.String(), "\n")
			return evt, nil
		}
	}
}
