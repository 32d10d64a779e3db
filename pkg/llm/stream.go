package llm

// StreamChunk represents a single chunk in a streaming response.
type StreamChunk struct {
	// Model that generated the chunk
	Model string `json:"model"`

	// Delta is the text produced since the previous chunk.
	Delta string `json:"delta"`

	// Whether this is the final chunk
	Done bool `json:"done"`

	// Stop reason (only present on final chunk)
	StopReason string `json:"stop_reason,omitempty"`

	// Usage metrics (typically only present on final chunk)
	Usage *Usage `json:"usage,omitempty"`
}

// StreamFunc receives chunks as they arrive. Returning an error aborts the
// stream and is returned from Client.Stream.
type StreamFunc func(chunk *StreamChunk) error
