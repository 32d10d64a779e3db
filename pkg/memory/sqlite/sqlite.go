// Package sqlite provides a memory.Driver backed by a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/specialist/pkg/logger"
	"github.com/papercomputeco/specialist/pkg/memory"
)

// FileName is the database file created inside a memory directory.
const FileName = "memories.db"

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	hash       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	owner_id   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner_id);
`

// Config holds configuration for the SQLite memory driver.
type Config struct {
	// DBPath is a file path or ":memory:".
	DBPath string

	// Now stamps created_at and updated_at. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Driver implements memory.Driver over a single SQLite connection.
type Driver struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// NewDriver opens the database and creates the memories table.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("sqlite memory driver requires a database path")
	}

	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	d := &Driver{
		db:     db,
		now:    cfg.Now,
		logger: logger.OrNop(cfg.Logger),
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// Apply executes ops for ownerID in a single transaction.
func (d *Driver) Apply(ctx context.Context, ops []memory.Operation, ownerID string) error {
	if len(ops) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := d.now()
	for _, op := range ops {
		switch op.Event {
		case memory.EventAdd:
			r := memory.NewRecord(op.ID, op.Text, ownerID, now)
			_, err = tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO memories (id, text, hash, created_at, updated_at, owner_id) VALUES (?, ?, ?, ?, ?, ?)`,
				r.ID, r.Text, r.Hash, formatTime(r.CreatedAt), formatTime(r.UpdatedAt), r.OwnerID,
			)
		case memory.EventUpdate:
			_, err = tx.ExecContext(ctx,
				`UPDATE memories SET text = ?, hash = ?, updated_at = ? WHERE id = ?`,
				op.Text, memory.Hash(op.Text), formatTime(now), op.ID,
			)
		case memory.EventDelete:
			_, err = tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, op.ID)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("applying %s %s: %w", op.Event, op.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	d.logger.Debug("applied memory operations", "owner", ownerID, "count", len(ops))
	return nil
}

// Search returns matching records in creation order.
func (d *Driver) Search(ctx context.Context, query, ownerID string, limit int) ([]memory.Record, error) {
	records, err := d.list(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return memory.Select(records, query, ownerID, limit), nil
}

// Get returns the record with the given id.
func (d *Driver) Get(ctx context.Context, id string) (memory.Record, bool, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, text, hash, created_at, updated_at, owner_id FROM memories WHERE id = ?`, id)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.Record{}, false, nil
	}
	if err != nil {
		return memory.Record{}, false, err
	}
	return r, true, nil
}

// GetAll returns ownerID's records in creation order.
func (d *Driver) GetAll(ctx context.Context, ownerID string, limit int) ([]memory.Record, error) {
	records, err := d.list(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return memory.Select(records, "", ownerID, limit), nil
}

// Delete removes a record, reporting whether it existed.
func (d *Driver) Delete(ctx context.Context, id string) (bool, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting memory %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Reset removes every record.
func (d *Driver) Reset(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return fmt.Errorf("resetting memories: %w", err)
	}
	return nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// list loads ownerID's rows; substring matching and ordering happen in
// memory.Select so both drivers fold case the same way.
func (d *Driver) list(ctx context.Context, ownerID string) ([]memory.Record, error) {
	q := `SELECT id, text, hash, created_at, updated_at, owner_id FROM memories`
	var args []any
	if ownerID != "" {
		q += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}

	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}
	defer rows.Close()

	var records []memory.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (memory.Record, error) {
	var (
		r                memory.Record
		created, updated string
	)
	if err := s.Scan(&r.ID, &r.Text, &r.Hash, &created, &updated, &r.OwnerID); err != nil {
		return memory.Record{}, err
	}

	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return memory.Record{}, fmt.Errorf("parsing created_at of %s: %w", r.ID, err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return memory.Record{}, fmt.Errorf("parsing updated_at of %s: %w", r.ID, err)
	}
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
