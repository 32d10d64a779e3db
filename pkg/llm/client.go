package llm

import "context"

// Client is the completion boundary: send a message list, get generated text
// back along with token usage when the provider reports it.
type Client interface {
	// Complete runs a single non-streaming completion.
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream runs a streaming completion, invoking fn for each chunk, and
	// returns the assembled response once the stream finishes.
	Stream(ctx context.Context, req *ChatRequest, fn StreamFunc) (*ChatResponse, error)
}
