package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
)

// MeterConfig configures a metered client.
type MeterConfig struct {
	Tracker Tracker

	// Model is the full "provider/name" string written to the log.
	Model string

	// Operation names every call made through the client.
	Operation string

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// MeteredClient wraps an llm.Client and records a usage entry after every
// successful call. Tracking failures are logged at debug and never
// returned.
type MeteredClient struct {
	client    llm.Client
	tracker   Tracker
	model     string
	operation string
	now       func() time.Time
	logger    *slog.Logger
}

// Meter wraps client.
func Meter(client llm.Client, cfg MeterConfig) *MeteredClient {
	m := &MeteredClient{
		client:    client,
		tracker:   cfg.Tracker,
		model:     cfg.Model,
		operation: cfg.Operation,
		now:       cfg.Now,
		logger:    logger.OrNop(cfg.Logger),
	}
	if m.tracker == nil {
		m.tracker = NopTracker{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *MeteredClient) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	start := m.now()
	resp, err := m.client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	m.track(ctx, start, resp)
	return resp, nil
}

func (m *MeteredClient) Stream(ctx context.Context, req *llm.ChatRequest, fn llm.StreamFunc) (*llm.ChatResponse, error) {
	start := m.now()
	resp, err := m.client.Stream(ctx, req, fn)
	if err != nil {
		return nil, err
	}
	m.track(ctx, start, resp)
	return resp, nil
}

func (m *MeteredClient) track(ctx context.Context, start time.Time, resp *llm.ChatResponse) {
	end := m.now()
	r := Record{
		Timestamp: end.UTC(),
		Model:     m.model,
		Operation: m.operation,
		Duration:  end.Sub(start).Milliseconds(),
	}
	if resp.Usage != nil {
		r.PromptTokens = resp.Usage.PromptTokens
		r.CompletionTokens = resp.Usage.CompletionTokens
		r.TotalTokens = resp.Usage.TotalTokens
	}

	if err := m.tracker.Track(ctx, r); err != nil {
		m.logger.Debug("failed to track usage", "operation", m.operation, "error", err)
	}
}
