package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
)

// Extractor turns conversation messages into short fact strings.
// Implementations never fail: problems yield an empty slice.
type Extractor interface {
	ExtractFacts(ctx context.Context, messages []llm.Message) []string
}

// NopExtractor extracts nothing.
type NopExtractor struct{}

func (NopExtractor) ExtractFacts(context.Context, []llm.Message) []string { return nil }

// ExtractorConfig configures an LLMExtractor.
type ExtractorConfig struct {
	Client llm.Client

	// Model is the bare model name sent to Client.
	Model string

	// Now supplies today's date for the prompt. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// LLMExtractor extracts facts by asking a model to fill {"facts": [...]}.
type LLMExtractor struct {
	client llm.Client
	model  string
	now    func() time.Time
	logger *slog.Logger
}

// NewLLMExtractor creates an LLMExtractor.
func NewLLMExtractor(cfg ExtractorConfig) *LLMExtractor {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &LLMExtractor{
		client: cfg.Client,
		model:  cfg.Model,
		now:    now,
		logger: logger.OrNop(cfg.Logger),
	}
}

// ExtractFacts sends the transcript of messages to the model and returns the
// non-blank facts it reports.
func (e *LLMExtractor) ExtractFacts(ctx context.Context, messages []llm.Message) []string {
	if len(messages) == 0 {
		return nil
	}

	resp, err := e.client.Complete(ctx, &llm.ChatRequest{
		Model: e.model,
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, FactExtractionPrompt(e.now())),
			llm.NewTextMessage(llm.RoleUser, Transcript(messages)),
		},
	})
	if err != nil {
		e.logger.Warn("fact extraction failed", "error", err)
		return nil
	}

	facts, err := parseFacts(resp.Text())
	if err != nil {
		e.logger.Warn("could not parse extracted facts",
			"error", err,
			"response", resp.Text(),
		)
		return nil
	}

	e.logger.Debug("extracted facts", "count", len(facts))
	return facts
}

// Transcript renders messages as "role: text" paragraphs. Messages carrying
// attachments collapse to a placeholder.
func Transcript(messages []llm.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		var content string
		switch {
		case len(msg.Content) == 0:
			content = "[Unknown content format]"
		case msg.IsTextOnly():
			content = msg.GetText()
		default:
			content = "[Content with attachments]"
		}
		lines = append(lines, msg.Role+": "+content)
	}
	return strings.Join(lines, "\n\n")
}

func parseFacts(text string) ([]string, error) {
	var payload struct {
		Facts []string `json:"facts"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		return nil, err
	}

	facts := make([]string, 0, len(payload.Facts))
	for _, f := range payload.Facts {
		if f = strings.TrimSpace(f); f != "" {
			facts = append(facts, f)
		}
	}
	return facts, nil
}

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// extractJSON returns the body of the first fenced code block in text, or
// the trimmed text when there is none.
func extractJSON(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil && m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
