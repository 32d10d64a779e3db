// Package anthropic is an llm.Client over the Anthropic Messages API, built
// on the official SDK.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
)

// DefaultMaxTokens is sent when the request does not set MaxTokens, since
// the Messages API requires it.
const DefaultMaxTokens = 4096

// Config configures an Anthropic client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries *int
	Logger     *slog.Logger
}

// Client wraps the SDK client.
type Client struct {
	sdk    anthropic.Client
	logger *slog.Logger
}

// New creates an Anthropic client.
func New(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*cfg.MaxRetries))
	}

	return &Client{
		sdk:    anthropic.NewClient(opts...),
		logger: logger.OrNop(cfg.Logger),
	}
}

// Complete sends a single Messages API request.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	params, err := toParams(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending anthropic messages request",
		"model", req.Model,
		"message_count", len(params.Messages),
	)

	msg, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	return toChatResponse(msg), nil
}

// Stream sends a streaming Messages API request, forwarding text deltas to
// fn and accumulating the full message.
func (c *Client) Stream(ctx context.Context, req *llm.ChatRequest, fn llm.StreamFunc) (*llm.ChatResponse, error) {
	params, err := toParams(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending anthropic streaming request",
		"model", req.Model,
		"message_count", len(params.Messages),
	)

	stream := c.sdk.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulating stream: %w", err)
		}

		ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
		if !ok || delta.Text == "" {
			continue
		}
		if err := fn(&llm.StreamChunk{Model: req.Model, Delta: delta.Text}); err != nil {
			return nil, err
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic stream: %w", err)
	}

	resp := toChatResponse(&message)
	if err := fn(&llm.StreamChunk{
		Model:      resp.Model,
		Done:       true,
		StopReason: resp.StopReason,
		Usage:      resp.Usage,
	}); err != nil {
		return nil, err
	}

	return resp, nil
}

func toParams(req *llm.ChatRequest) (anthropic.MessageNewParams, error) {
	if req == nil {
		return anthropic.MessageNewParams{}, errors.New("nil chat request")
	}

	system, rest := req.SplitSystem()

	maxTokens := int64(DefaultMaxTokens)
	if req.MaxTokens != nil {
		maxTokens = int64(*req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  toMessages(rest),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	return params, nil
}

// toMessages maps roles onto the two the Messages API accepts. Tool output
// and stray system messages are sent as user turns.
func toMessages(msgs []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		blocks := toBlocks(msg)
		if len(blocks) == 0 {
			continue
		}
		if msg.Role == llm.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func toBlocks(msg llm.Message) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case llm.BlockText:
			if block.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			}
		case llm.BlockImage:
			blocks = append(blocks, anthropic.NewImageBlockBase64(block.MediaType, block.Data))
		case llm.BlockDocument:
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: block.Data}))
		}
	}
	return blocks
}

func toChatResponse(msg *anthropic.Message) *llm.ChatResponse {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	resp := &llm.ChatResponse{
		Model:      string(msg.Model),
		Message:    llm.NewTextMessage(llm.RoleAssistant, text.String()),
		StopReason: string(msg.StopReason),
	}
	if msg.Usage.InputTokens > 0 || msg.Usage.OutputTokens > 0 {
		resp.Usage = llm.NewUsage(int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens), 0)
	}
	return resp
}
