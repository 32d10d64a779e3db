package sse

import (
	"bufio"
	"io"
	"strings"
)

// Reader parses SSE events from an io.Reader, one event per call to Next.
type Reader struct {
	scanner *bufio.Scanner

	// current accumulates fields for the event being built.
	current *Event
	hasData bool
}

// NewReader returns a Reader over src. Lines up to 1MiB are supported, which
// covers large single-chunk deltas.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{
		scanner: scanner,
		current: &Event{},
	}
}

// Next blocks until a complete event is available (terminated by a blank
// line) and returns it. Next returns nil, nil when the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		raw := strings.TrimSuffix(r.scanner.Text(), "\r")

		if raw == "" {
			if r.hasData {
				return r.take(), nil
			}
			// keep-alive or leading blank line
			continue
		}

		// comment line
		if strings.HasPrefix(raw, ":") {
			continue
		}

		r.parseLine(raw)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream ended without a trailing blank line.
	if r.hasData {
		return r.take(), nil
	}

	return nil, nil
}

// parseLine accumulates a single "field: value" line into the current event.
// A single space after the colon is stripped.
func (r *Reader) parseLine(line string) {
	field, value, ok := strings.Cut(line, ":")
	if ok {
		value = strings.TrimPrefix(value, " ")
	}

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	default:
		// "retry" and unknown fields are ignored.
	}
}

func (r *Reader) take() *Event {
	ev := r.current
	r.current = &Event{}
	r.hasData = false
	return ev
}
