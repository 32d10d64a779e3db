// Package openai is an llm.Client for the OpenAI chat completions API and
// the compatible endpoints served by Mistral and Groq.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
	"github.com/papercomputeco/specialist/pkg/sse"
)

// DefaultBaseURL is OpenAI's API root, including the version segment.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config configures a chat completions client.
type Config struct {
	// Name labels errors and logs ("openai", "mistral", "groq").
	Name string

	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a chat completions client.
func New(cfg Config) *Client {
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		logger:  logger.OrNop(cfg.Logger),
	}
}

// Complete sends a non-streaming chat completion request.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := c.do(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", c.name, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%s error: %s", c.name, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", c.name)
	}

	choice := out.Choices[0]
	result := &llm.ChatResponse{
		Model:      out.Model,
		Message:    llm.NewTextMessage(llm.RoleAssistant, choice.Message.Content),
		StopReason: choice.FinishReason,
		Usage:      toUsage(out.Usage),
	}
	if out.Created > 0 {
		result.CreatedAt = time.Unix(out.Created, 0).UTC()
	}

	return result, nil
}

// Stream sends a streaming request and consumes the SSE response until the
// [DONE] sentinel or end of body.
func (c *Client) Stream(ctx context.Context, req *llm.ChatRequest, fn llm.StreamFunc) (*llm.ChatResponse, error) {
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var (
		full   strings.Builder
		model  = req.Model
		finish string
		usage  *llm.Usage
	)

	reader := sse.NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}
		if ev == nil || ev.IsDone() {
			break
		}

		var chunk openaiStreamChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			c.logger.Debug("failed to parse stream chunk",
				"provider", c.name,
				"error", err,
				"data", ev.Data,
			)
			continue
		}
		if chunk.Error != nil {
			return nil, fmt.Errorf("%s error: %s", c.name, chunk.Error.Message)
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if chunk.Usage != nil {
			usage = toUsage(chunk.Usage)
		}

		for _, choice := range chunk.Choices {
			if choice.FinishReason != nil {
				finish = *choice.FinishReason
			}
			if choice.Delta.Content == "" {
				continue
			}
			full.WriteString(choice.Delta.Content)
			if err := fn(&llm.StreamChunk{Model: model, Delta: choice.Delta.Content}); err != nil {
				return nil, err
			}
		}
	}

	if err := fn(&llm.StreamChunk{Model: model, Done: true, StopReason: finish, Usage: usage}); err != nil {
		return nil, err
	}

	return &llm.ChatResponse{
		Model:      model,
		Message:    llm.NewTextMessage(llm.RoleAssistant, full.String()),
		StopReason: finish,
		Usage:      usage,
	}, nil
}

func (c *Client) do(ctx context.Context, req *llm.ChatRequest, stream bool) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil chat request")
	}

	body, err := json.Marshal(toOpenAIRequest(req, stream))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("sending chat completion request",
		"provider", c.name,
		"model", req.Model,
		"stream", stream,
		"message_count", len(req.Messages),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s API error (status %d): %s", c.name, resp.StatusCode, string(respBody))
	}

	return resp, nil
}

func toOpenAIRequest(req *llm.ChatRequest, stream bool) *openaiRequest {
	out := &openaiRequest{
		Model:       req.Model,
		Messages:    make([]openaiMessage, 0, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if stream {
		out.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	if req.JSON {
		out.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	for _, msg := range req.Messages {
		out.Messages = append(out.Messages, toOpenAIMessage(msg))
	}
	return out
}

// toOpenAIMessage sends text-only messages as a plain string and anything
// else as content parts.
func toOpenAIMessage(msg llm.Message) openaiMessage {
	if msg.IsTextOnly() || len(msg.Content) == 0 {
		return openaiMessage{Role: msg.Role, Content: msg.GetText()}
	}

	parts := make([]openaiContentPart, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case llm.BlockText:
			parts = append(parts, openaiContentPart{Type: "text", Text: block.Text})
		case llm.BlockImage:
			parts = append(parts, openaiContentPart{
				Type:     "image_url",
				ImageURL: &imageURL{URL: dataURL(block)},
			})
		case llm.BlockDocument:
			parts = append(parts, openaiContentPart{
				Type: "file",
				File: &filePart{Filename: block.Filename, FileData: dataURL(block)},
			})
		}
	}
	return openaiMessage{Role: msg.Role, Content: parts}
}

func dataURL(block llm.ContentBlock) string {
	return "data:" + block.MediaType + ";base64," + block.Data
}

func toUsage(u *openaiUsage) *llm.Usage {
	if u == nil {
		return nil
	}
	return llm.NewUsage(u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}
