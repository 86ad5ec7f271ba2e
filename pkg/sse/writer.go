package sse

import (
	"fmt"
	"io"
	"strings"
)

// Writer encodes SSE events onto a destination io.Writer in wire format.
// Each Send produces the event's field lines followed by the blank line
// terminator. If the destination implements Flush (e.g. *bufio.Writer),
// it is flushed after every event so clients see events as they happen.
type Writer struct {
	dest io.Writer
}

type flusher interface {
	Flush() error
}

// NewWriter returns a Writer that encodes events onto dest.
func NewWriter(dest io.Writer) *Writer {
	return &Writer{dest: dest}
}

// Send writes a single event in SSE wire format.
// Multi-line data is split across multiple "data:" lines per the spec.
func (w *Writer) Send(ev *Event) error {
	var b strings.Builder

	if ev.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", ev.ID)
	}
	if ev.Type != "" {
		fmt.Fprintf(&b, "event: %s\n", ev.Type)
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(w.dest, b.String()); err != nil {
		return err
	}

	if f, ok := w.dest.(flusher); ok {
		return f.Flush()
	}

	return nil
}

// SendData writes a default-typed event carrying the given data payload.
func (w *Writer) SendData(data string) error {
	return w.Send(&Event{Data: data})
}

// SendEvent writes a named event carrying the given data payload.
func (w *Writer) SendEvent(eventType, data string) error {
	return w.Send(&Event{Type: eventType, Data: data})
}
