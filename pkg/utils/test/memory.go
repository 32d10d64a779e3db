package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/memory"
)

// ErrMockDriver is returned by MockDriver when a Fail flag is set.
var ErrMockDriver = errors.New("mock driver failure")

// MockExtractor returns Facts for every call and records the messages it saw.
type MockExtractor struct {
	mu sync.Mutex

	Facts []string

	// FactsFunc, when set, takes precedence over Facts.
	FactsFunc func(messages []llm.Message) []string

	Calls [][]llm.Message
}

func (m *MockExtractor) ExtractFacts(_ context.Context, messages []llm.Message) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, llm.CloneMessages(messages))
	if m.FactsFunc != nil {
		return m.FactsFunc(messages)
	}
	return m.Facts
}

// CallCount returns the number of ExtractFacts calls.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockReconciler delegates to OpsFunc, or adds every fact with sequential
// ids ("m1", "m2", ...) when OpsFunc is nil.
type MockReconciler struct {
	mu sync.Mutex
	n  int

	OpsFunc func(facts []string, existing []memory.Record) []memory.Operation

	// Existing records the existing slice passed to the last call.
	Existing []memory.Record
}

func (m *MockReconciler) DetermineOperations(_ context.Context, facts []string, existing []memory.Record) []memory.Operation {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Existing = existing
	if m.OpsFunc != nil {
		return m.OpsFunc(facts, existing)
	}

	ops := make([]memory.Operation, 0, len(facts))
	for _, f := range facts {
		m.n++
		ops = append(ops, memory.Operation{ID: SeqID("m", m.n), Text: f, Event: memory.EventAdd})
	}
	return ops
}

// MockDriver is an in-memory memory.Driver with failure injection.
type MockDriver struct {
	mu      sync.Mutex
	records map[string]memory.Record
	now     time.Time

	FailApply bool
	FailRead  bool

	// Applied accumulates every batch passed to Apply.
	Applied [][]memory.Operation
}

// NewMockDriver creates an empty mock driver. Records are stamped one second
// apart starting at a fixed instant so ordering is deterministic.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		records: make(map[string]memory.Record),
		now:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *MockDriver) Apply(_ context.Context, ops []memory.Operation, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailApply {
		return ErrMockDriver
	}
	m.Applied = append(m.Applied, ops)

	for _, op := range ops {
		m.now = m.now.Add(time.Second)
		switch op.Event {
		case memory.EventAdd:
			m.records[op.ID] = memory.NewRecord(op.ID, op.Text, ownerID, m.now)
		case memory.EventUpdate:
			if r, ok := m.records[op.ID]; ok {
				m.records[op.ID] = r.WithText(op.Text, m.now)
			}
		case memory.EventDelete:
			delete(m.records, op.ID)
		}
	}
	return nil
}

func (m *MockDriver) Search(_ context.Context, query, ownerID string, limit int) ([]memory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailRead {
		return nil, ErrMockDriver
	}
	return memory.Select(m.all(), query, ownerID, limit), nil
}

func (m *MockDriver) Get(_ context.Context, id string) (memory.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailRead {
		return memory.Record{}, false, ErrMockDriver
	}
	r, ok := m.records[id]
	return r, ok, nil
}

func (m *MockDriver) GetAll(_ context.Context, ownerID string, limit int) ([]memory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailRead {
		return nil, ErrMockDriver
	}
	return memory.Select(m.all(), "", ownerID, limit), nil
}

func (m *MockDriver) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

func (m *MockDriver) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]memory.Record)
	return nil
}

func (m *MockDriver) Close() error {
	return nil
}

func (m *MockDriver) all() []memory.Record {
	out := make([]memory.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out
}
