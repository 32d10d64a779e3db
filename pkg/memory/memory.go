package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
)

const (
	// DefaultSearchLimit caps Search when no limit is given.
	DefaultSearchLimit = 5

	// DefaultListLimit caps GetAll when no limit is given.
	DefaultListLimit = 100
)

// Config configures a Memory.
type Config struct {
	// Driver persists records. Required.
	Driver Driver

	// Extractor defaults to NopExtractor.
	Extractor Extractor

	// Reconciler defaults to AddAllReconciler.
	Reconciler Reconciler

	Logger *slog.Logger
}

// Memory is the fact store: it runs the extract and reconcile pipeline and
// applies the result to its driver.
type Memory struct {
	driver     Driver
	extractor  Extractor
	reconciler Reconciler
	logger     *slog.Logger
}

// New creates a Memory. It returns ErrNotConfigured without a driver.
func New(cfg Config) (*Memory, error) {
	if cfg.Driver == nil {
		return nil, ErrNotConfigured
	}

	m := &Memory{
		driver:     cfg.Driver,
		extractor:  cfg.Extractor,
		reconciler: cfg.Reconciler,
		logger:     logger.OrNop(cfg.Logger),
	}
	if m.extractor == nil {
		m.extractor = NopExtractor{}
	}
	if m.reconciler == nil {
		m.reconciler = AddAllReconciler{}
	}
	return m, nil
}

// Add extracts facts from messages and reconciles them into ownerID's
// records. It returns the reconciler's operations verbatim, including UPDATE
// and DELETE operations that turned out to be no-ops.
func (m *Memory) Add(ctx context.Context, messages []llm.Message, ownerID string) ([]Operation, error) {
	facts := m.extractor.ExtractFacts(ctx, messages)
	return m.AddFacts(ctx, facts, ownerID)
}

// AddFacts reconciles already extracted facts into ownerID's records.
func (m *Memory) AddFacts(ctx context.Context, facts []string, ownerID string) ([]Operation, error) {
	existing, err := m.driver.GetAll(ctx, ownerID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading existing memories: %w", err)
	}

	ops := m.reconciler.DetermineOperations(ctx, facts, existing)
	if len(ops) == 0 {
		return ops, nil
	}

	if err := m.driver.Apply(ctx, ops, ownerID); err != nil {
		return ops, fmt.Errorf("applying memory operations: %w", err)
	}

	m.logger.Debug("memory updated",
		"owner", ownerID,
		"facts", len(facts),
		"operations", len(ops),
	)
	return ops, nil
}

// Search returns ownerID's records containing query, ignoring case.
// limit <= 0 means DefaultSearchLimit.
func (m *Memory) Search(ctx context.Context, query, ownerID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return m.driver.Search(ctx, query, ownerID, limit)
}

// Get returns the record with the given id.
func (m *Memory) Get(ctx context.Context, id string) (Record, bool, error) {
	return m.driver.Get(ctx, id)
}

// GetAll returns ownerID's records, or every record for an empty ownerID.
// limit <= 0 means DefaultListLimit.
func (m *Memory) GetAll(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return m.driver.GetAll(ctx, ownerID, limit)
}

// Delete removes a record, reporting whether it existed.
func (m *Memory) Delete(ctx context.Context, id string) (bool, error) {
	return m.driver.Delete(ctx, id)
}

// Reset removes every record for every owner.
func (m *Memory) Reset(ctx context.Context) error {
	return m.driver.Reset(ctx)
}

// Close releases the driver.
func (m *Memory) Close() error {
	return m.driver.Close()
}
