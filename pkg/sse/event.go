// Package sse provides a minimal Server-Sent Events reader used to consume
// streamed completions from OpenAI-compatible chat endpoints.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// doneSentinel is the data payload OpenAI-compatible APIs send as the final
// event of a stream.
const doneSentinel = "[DONE]"

// Event represents a single parsed SSE event, delimited by a blank line
// in the byte stream.
type Event struct {
	// Type is the "event:" field. Empty means the default "message" type.
	Type string

	// Data is all "data:" lines of the event joined with "\n".
	Data string

	// ID is the "id:" field, if present.
	ID string
}

// IsDone reports whether the event is the "[DONE]" stream terminator.
func (e *Event) IsDone() bool {
	return e != nil && e.Data == doneSentinel
}
