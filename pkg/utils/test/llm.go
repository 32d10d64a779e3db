package testutils

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/papercomputeco/specialist/pkg/llm"
)

// ErrMockClient is returned by MockClient when Fail is set.
var ErrMockClient = errors.New("mock client failure")

// MockClient is a test llm.Client that replays scripted replies and records
// every request it receives.
type MockClient struct {
	mu sync.Mutex

	// Replies are returned in order. Once exhausted, Default is returned.
	Replies []string
	Default string

	// Usage is attached to every response when set.
	Usage *llm.Usage

	// Fail causes every call to return ErrMockClient.
	Fail bool

	// ReplyFunc, when set, computes the reply from the request and takes
	// precedence over Replies.
	ReplyFunc func(req *llm.ChatRequest) (string, error)

	Requests []*llm.ChatRequest
}

// NewMockClient creates a mock client that replays replies in order.
func NewMockClient(replies ...string) *MockClient {
	return &MockClient{Replies: replies}
}

func (m *MockClient) Complete(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	text, err := m.next(req)
	if err != nil {
		return nil, err
	}
	return m.response(req, text), nil
}

// Stream emits the reply one word at a time followed by a final Done chunk.
func (m *MockClient) Stream(_ context.Context, req *llm.ChatRequest, fn llm.StreamFunc) (*llm.ChatResponse, error) {
	text, err := m.next(req)
	if err != nil {
		return nil, err
	}

	words := strings.SplitAfter(text, " ")
	for _, w := range words {
		if w == "" {
			continue
		}
		if err := fn(&llm.StreamChunk{Model: req.Model, Delta: w}); err != nil {
			return nil, err
		}
	}

	resp := m.response(req, text)
	if err := fn(&llm.StreamChunk{Model: req.Model, Done: true, StopReason: "stop", Usage: resp.Usage}); err != nil {
		return nil, err
	}
	return resp, nil
}

// Calls returns the number of requests received.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// LastRequest returns the most recent request, or nil.
func (m *MockClient) LastRequest() *llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

func (m *MockClient) next(req *llm.ChatRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if m.Fail {
		return "", ErrMockClient
	}
	if m.ReplyFunc != nil {
		return m.ReplyFunc(req)
	}
	if len(m.Replies) == 0 {
		return m.Default, nil
	}
	reply := m.Replies[0]
	m.Replies = m.Replies[1:]
	return reply, nil
}

func (m *MockClient) response(req *llm.ChatRequest, text string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model:      req.Model,
		Message:    llm.NewTextMessage(llm.RoleAssistant, text),
		StopReason: "stop",
		Usage:      m.Usage,
	}
}
