package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
)

// Reconciler decides how new facts change the existing records.
// Implementations never fail: problems fall back to adding every fact.
type Reconciler interface {
	DetermineOperations(ctx context.Context, facts []string, existing []Record) []Operation
}

// AddAllReconciler treats every fact as new.
type AddAllReconciler struct {
	// NewID generates record ids. Defaults to uuid.NewString.
	NewID func() string
}

func (r AddAllReconciler) DetermineOperations(_ context.Context, facts []string, _ []Record) []Operation {
	return addAll(facts, idFunc(r.NewID))
}

// ReconcilerConfig configures an LLMReconciler.
type ReconcilerConfig struct {
	Client llm.Client

	// Model is the bare model name sent to Client.
	Model string

	// NewID generates ids for added records. Defaults to uuid.NewString.
	NewID func() string

	Logger *slog.Logger
}

// LLMReconciler asks a model to compare new facts against existing records.
// Existing records are shown to the model under positional ids ("0", "1",
// ...) and translated back afterwards, so real ids never leave the process.
type LLMReconciler struct {
	client llm.Client
	model  string
	newID  func() string
	logger *slog.Logger
}

// NewLLMReconciler creates an LLMReconciler.
func NewLLMReconciler(cfg ReconcilerConfig) *LLMReconciler {
	return &LLMReconciler{
		client: cfg.Client,
		model:  cfg.Model,
		newID:  idFunc(cfg.NewID),
		logger: logger.OrNop(cfg.Logger),
	}
}

type promptMemory struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// DetermineOperations returns one operation per item of the model's answer.
// On a model error or an unparseable answer every fact is returned as ADD.
func (r *LLMReconciler) DetermineOperations(ctx context.Context, facts []string, existing []Record) []Operation {
	if len(facts) == 0 {
		return nil
	}

	positional := make([]promptMemory, len(existing))
	byPosition := make(map[string]Record, len(existing))
	for i, rec := range existing {
		key := strconv.Itoa(i)
		positional[i] = promptMemory{ID: key, Text: rec.Text}
		byPosition[key] = rec
	}

	oldMemory, err := marshalIndent(positional)
	if err != nil {
		r.logger.Warn("encoding existing memories", "error", err)
		return addAll(facts, r.newID)
	}
	newFacts, err := marshalIndent(facts)
	if err != nil {
		r.logger.Warn("encoding facts", "error", err)
		return addAll(facts, r.newID)
	}

	resp, err := r.client.Complete(ctx, &llm.ChatRequest{
		Model: r.model,
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, OperationsPrompt(oldMemory, newFacts)),
		},
	})
	if err != nil {
		r.logger.Warn("determining memory operations failed, adding all facts", "error", err)
		return addAll(facts, r.newID)
	}

	items, err := parseOperations(resp.Text())
	if err != nil {
		r.logger.Warn("could not parse memory operations, adding all facts",
			"error", err,
			"response", resp.Text(),
		)
		return addAll(facts, r.newID)
	}

	ops := make([]Operation, 0, len(items))
	for _, item := range items {
		ops = append(ops, r.resolve(item, byPosition))
	}

	r.logger.Debug("determined memory operations", "facts", len(facts), "operations", len(ops))
	return ops
}

// resolve maps a positional id back to a record id. ADD always receives a
// fresh id so it can never overwrite an existing record.
func (r *LLMReconciler) resolve(item operationItem, byPosition map[string]Record) Operation {
	op := Operation{Text: item.Text, Event: item.Event, PreviousText: item.OldMemory}

	rec, known := byPosition[item.ID]
	if item.Event == EventAdd || !known {
		op.ID = r.newID()
		return op
	}

	op.ID = rec.ID
	switch item.Event {
	case EventUpdate:
		if op.PreviousText == "" {
			op.PreviousText = rec.Text
		}
	case EventNone, EventDelete:
		if op.Text == "" {
			op.Text = rec.Text
		}
	}
	return op
}

func addAll(facts []string, newID func() string) []Operation {
	ops := make([]Operation, 0, len(facts))
	for _, f := range facts {
		ops = append(ops, Operation{ID: newID(), Text: f, Event: EventAdd})
	}
	return ops
}

func idFunc(f func() string) func() string {
	if f == nil {
		return uuid.NewString
	}
	return f
}

// marshalIndent encodes v with two-space indentation and without HTML
// escaping, so fact text reaches the model as written.
func marshalIndent(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
