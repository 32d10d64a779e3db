// Package local provides the default memory.Driver: an in-process map of
// records mirrored to <path>/memories.json.
//
// The file is read once at construction and rewritten in full after every
// mutation. Read and write failures are logged, never fatal: a corrupt file
// starts an empty store and a failed write leaves the in-memory map as the
// only copy until the next successful write.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/papercomputeco/specialist/pkg/logger"
	"github.com/papercomputeco/specialist/pkg/memory"
)

// FileName is the name of the JSON mirror inside the configured directory.
const FileName = "memories.json"

// Config holds configuration for the local memory driver.
type Config struct {
	// Path is the directory holding memories.json. It is created if missing.
	Path string

	// Now stamps created_at and updated_at. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Driver implements memory.Driver over a JSON file.
type Driver struct {
	file   string
	now    func() time.Time
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]memory.Record
}

// NewDriver creates the directory if needed and loads any existing records.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Path == "" {
		return nil, errors.New("local memory driver requires a path")
	}
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating memory directory: %w", err)
	}

	d := &Driver{
		file:    filepath.Join(cfg.Path, FileName),
		now:     cfg.Now,
		logger:  logger.OrNop(cfg.Logger),
		records: make(map[string]memory.Record),
	}
	if d.now == nil {
		d.now = time.Now
	}

	d.load()
	return d, nil
}

// File returns the path of the JSON mirror.
func (d *Driver) File() string {
	return d.file
}

func (d *Driver) load() {
	data, err := os.ReadFile(d.file)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			d.logger.Warn("reading memories, starting empty", "file", d.file, "error", err)
		}
		return
	}

	var records []memory.Record
	if err := json.Unmarshal(data, &records); err != nil {
		d.logger.Warn("parsing memories, starting empty", "file", d.file, "error", err)
		return
	}

	for _, r := range records {
		if r.ID == "" {
			continue
		}
		d.records[r.ID] = r
	}
	d.logger.Debug("loaded memories", "file", d.file, "count", len(d.records))
}

// persist rewrites the mirror through a temp file and rename. Callers hold
// the write lock.
func (d *Driver) persist() {
	if err := d.writeFile(); err != nil {
		d.logger.Warn("writing memories", "file", d.file, "error", err)
	}
}

func (d *Driver) writeFile() error {
	records := memory.Select(d.snapshot(), "", "", 0)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding memories: %w", err)
	}

	dir := filepath.Dir(d.file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating memory directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	return os.Rename(tmp.Name(), d.file)
}

func (d *Driver) snapshot() []memory.Record {
	out := make([]memory.Record, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r)
	}
	return out
}

// Apply executes ops for ownerID and persists once for the whole batch.
func (d *Driver) Apply(_ context.Context, ops []memory.Operation, ownerID string) error {
	if len(ops) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for _, op := range ops {
		switch op.Event {
		case memory.EventAdd:
			d.records[op.ID] = memory.NewRecord(op.ID, op.Text, ownerID, now)
		case memory.EventUpdate:
			if existing, ok := d.records[op.ID]; ok {
				d.records[op.ID] = existing.WithText(op.Text, now)
			}
		case memory.EventDelete:
			delete(d.records, op.ID)
		}
	}

	d.persist()
	return nil
}

// Search returns matching records in creation order.
func (d *Driver) Search(_ context.Context, query, ownerID string, limit int) ([]memory.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return memory.Select(d.snapshot(), query, ownerID, limit), nil
}

// Get returns a copy of the record with the given id.
func (d *Driver) Get(_ context.Context, id string) (memory.Record, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.records[id]
	return r, ok, nil
}

// GetAll returns ownerID's records in creation order.
func (d *Driver) GetAll(_ context.Context, ownerID string, limit int) ([]memory.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return memory.Select(d.snapshot(), "", ownerID, limit), nil
}

// Delete removes a record and persists when it existed.
func (d *Driver) Delete(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[id]; !ok {
		return false, nil
	}
	delete(d.records, id)
	d.persist()
	return true, nil
}

// Reset clears every record and persists the empty store.
func (d *Driver) Reset(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.records = make(map[string]memory.Record)
	d.persist()
	return nil
}

// Close is a no-op; every mutation is already on disk.
func (d *Driver) Close() error {
	return nil
}
