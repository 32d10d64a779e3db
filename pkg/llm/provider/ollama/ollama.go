// Package ollama is an llm.Client for Ollama's native /api/chat endpoint.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
)

// DefaultBaseURL is the local Ollama daemon.
const DefaultBaseURL = "http://localhost:11434"

// Config configures an Ollama client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to Ollama over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates an Ollama client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.OrNop(cfg.Logger),
	}
}

// Complete sends a non-streaming chat request.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := c.do(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding ollama response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", out.Error)
	}

	return toChatResponse(&out, out.Message.Content), nil
}

// Stream sends a streaming chat request and decodes the NDJSON response line
// by line.
func (c *Client) Stream(ctx context.Context, req *llm.ChatRequest, fn llm.StreamFunc) (*llm.ChatResponse, error) {
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var (
		full strings.Builder
		last ollamaResponse
	)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk ollamaResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.logger.Debug("failed to parse stream chunk",
				"error", err,
				"line", string(line),
			)
			continue
		}
		if chunk.Error != "" {
			return nil, fmt.Errorf("ollama error: %s", chunk.Error)
		}

		full.WriteString(chunk.Message.Content)
		last = chunk

		sc := &llm.StreamChunk{
			Model: chunk.Model,
			Delta: chunk.Message.Content,
			Done:  chunk.Done,
		}
		if chunk.Done {
			sc.StopReason = stopReason(&chunk)
			sc.Usage = usage(&chunk)
		}
		if err := fn(sc); err != nil {
			return nil, err
		}

		if chunk.Done {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}

	return toChatResponse(&last, full.String()), nil
}

func (c *Client) do(ctx context.Context, req *llm.ChatRequest, stream bool) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil chat request")
	}

	body, err := json.Marshal(toOllamaRequest(req, stream))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending ollama chat request",
		"model", req.Model,
		"stream", stream,
		"message_count", len(req.Messages),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return resp, nil
}

func toOllamaRequest(req *llm.ChatRequest, stream bool) *ollamaRequest {
	out := &ollamaRequest{
		Model:    req.Model,
		Messages: make([]ollamaMessage, 0, len(req.Messages)),
		Stream:   stream,
	}
	if req.JSON {
		out.Format = "json"
	}
	if req.Temperature != nil || req.MaxTokens != nil {
		out.Options = &ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}

	for _, msg := range req.Messages {
		om := ollamaMessage{Role: msg.Role}
		var texts []string
		for _, block := range msg.Content {
			switch block.Type {
			case llm.BlockText:
				texts = append(texts, block.Text)
			case llm.BlockImage:
				om.Images = append(om.Images, block.Data)
			case llm.BlockDocument:
				// Ollama has no document input.
				texts = append(texts, fmt.Sprintf("[Attached document: %s]", block.Filename))
			}
		}
		om.Content = strings.Join(texts, "\n")
		out.Messages = append(out.Messages, om)
	}

	return out
}

func toChatResponse(resp *ollamaResponse, text string) *llm.ChatResponse {
	role := resp.Message.Role
	if role == "" {
		role = llm.RoleAssistant
	}
	return &llm.ChatResponse{
		Model:      resp.Model,
		CreatedAt:  resp.CreatedAt,
		Message:    llm.NewTextMessage(role, text),
		StopReason: stopReason(resp),
		Usage:      usage(resp),
	}
}

func stopReason(resp *ollamaResponse) string {
	if resp.DoneReason != "" {
		return resp.DoneReason
	}
	if resp.Done {
		return "stop"
	}
	return ""
}

func usage(resp *ollamaResponse) *llm.Usage {
	if resp.PromptEvalCount == 0 && resp.EvalCount == 0 {
		return nil
	}
	return llm.NewUsage(resp.PromptEvalCount, resp.EvalCount, 0)
}
