// Package usage records completion calls to a JSON log and aggregates them
// into statistics.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/specialist/pkg/logger"
)

// FileName is the usage log inside the dot directory.
const FileName = "usage.json"

// Operation names recorded in the log.
const (
	OpComplete         = "complete"
	OpStream           = "stream"
	OpStreamWithMemory = "stream-with-memory"
	OpExtractFacts     = "memory-extract-facts"
	OpDetermineOps     = "memory-determine-ops"
)

// Record is one completion call. Token counts and duration are omitted when
// unknown.
type Record struct {
	Timestamp        time.Time `json:"timestamp"`
	Model            string    `json:"model"`
	Operation        string    `json:"operation"`
	PromptTokens     int       `json:"promptTokens,omitempty"`
	CompletionTokens int       `json:"completionTokens,omitempty"`
	TotalTokens      int       `json:"totalTokens,omitempty"`

	// Duration in milliseconds.
	Duration int64 `json:"duration,omitempty"`
}

// Tracker stores usage records.
type Tracker interface {
	Track(ctx context.Context, r Record) error
	Records(ctx context.Context) ([]Record, error)
}

// NopTracker discards records.
type NopTracker struct{}

func (NopTracker) Track(context.Context, Record) error { return nil }
func (NopTracker) Records(context.Context) ([]Record, error) { return nil, nil }

// FileTracker appends records to a JSON array on disk.
type FileTracker struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileTracker creates a tracker writing to path. The file and its
// directory are created on the first Track.
func NewFileTracker(path string, l *slog.Logger) *FileTracker {
	return &FileTracker{path: path, logger: logger.OrNop(l)}
}

// Path returns the log location.
func (t *FileTracker) Path() string {
	return t.path
}

// Track appends r and rewrites the log.
func (t *FileTracker) Track(_ context.Context, r Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.read()
	if err != nil {
		return err
	}
	records = append(records, r)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding usage log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("creating usage directory: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("writing usage log: %w", err)
	}

	t.logger.Debug("usage tracked", "model", r.Model, "operation", r.Operation, "total_tokens", r.TotalTokens)
	return nil
}

// Records returns every logged record. A missing log is empty.
func (t *FileTracker) Records(_ context.Context) ([]Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.read()
}

func (t *FileTracker) read() ([]Record, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading usage log: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing usage log %s: %w", t.path, err)
	}
	return records, nil
}

// Stats aggregates usage records.
type Stats struct {
	TotalCalls            int `json:"totalCalls"`
	TotalTokens           int `json:"totalTokens"`
	TotalPromptTokens     int `json:"totalPromptTokens"`
	TotalCompletionTokens int `json:"totalCompletionTokens"`

	TokensByModel           map[string]int `json:"tokensByModel"`
	PromptTokensByModel     map[string]int `json:"promptTokensByModel"`
	CompletionTokensByModel map[string]int `json:"completionTokensByModel"`
	CallsByModel            map[string]int `json:"callsByModel"`
	CallsByOperation        map[string]int `json:"callsByOperation"`
}

// Aggregate sums records into Stats. Token maps only gain a model entry once
// that model reports tokens of the corresponding kind.
func Aggregate(records []Record) Stats {
	s := Stats{
		TotalCalls:              len(records),
		TokensByModel:           map[string]int{},
		PromptTokensByModel:     map[string]int{},
		CompletionTokensByModel: map[string]int{},
		CallsByModel:            map[string]int{},
		CallsByOperation:        map[string]int{},
	}

	for _, r := range records {
		if r.TotalTokens > 0 {
			s.TotalTokens += r.TotalTokens
			s.TokensByModel[r.Model] += r.TotalTokens
		}
		if r.PromptTokens > 0 {
			s.TotalPromptTokens += r.PromptTokens
			s.PromptTokensByModel[r.Model] += r.PromptTokens
		}
		if r.CompletionTokens > 0 {
			s.TotalCompletionTokens += r.CompletionTokens
			s.CompletionTokensByModel[r.Model] += r.CompletionTokens
		}
		s.CallsByModel[r.Model]++
		s.CallsByOperation[r.Operation]++
	}
	return s
}

// Load reads t and aggregates its records.
func Load(ctx context.Context, t Tracker) (Stats, error) {
	records, err := t.Records(ctx)
	if err != nil {
		return Aggregate(nil), err
	}
	return Aggregate(records), nil
}

// SortedKeys returns the keys of m in order, for stable output.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
