// Package memory extracts durable facts about the user from conversation
// turns, reconciles them against previously stored facts and persists them
// through a pluggable [Driver].
//
// The pipeline behind [Memory.Add] is:
//
//	messages -> Extractor -> facts -> Reconciler(facts, existing) -> operations -> Driver.Apply
//
// Facts are scoped by an owner id (a chat session or user). An empty owner id
// is the global scope and matches every record on reads.
//
// Drivers are pluggable via configuration:
//
//	[memory]
//	provider = "local"   # or "sqlite"
package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Driver persists fact records. Implementations must be safe for concurrent
// use and must return copies, never references into their own state.
type Driver interface {
	// Apply executes a batch of operations for ownerID. ADD inserts, UPDATE
	// rewrites the text of an existing record, DELETE removes it and NONE is
	// skipped. UPDATE and DELETE on unknown ids are silent no-ops.
	Apply(ctx context.Context, ops []Operation, ownerID string) error

	// Search returns records whose text contains query, ignoring case.
	// An empty ownerID matches every owner; limit <= 0 means no limit.
	Search(ctx context.Context, query, ownerID string, limit int) ([]Record, error)

	// Get returns the record with the given id.
	Get(ctx context.Context, id string) (Record, bool, error)

	// GetAll returns the records of ownerID, or every record when ownerID is
	// empty; limit <= 0 means no limit.
	GetAll(ctx context.Context, ownerID string, limit int) ([]Record, error)

	// Delete removes a record, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Reset removes every record for every owner.
	Reset(ctx context.Context) error

	// Close releases driver resources.
	Close() error
}

// Record is a single persisted fact.
type Record struct {
	ID        string    `json:"id"`
	Text      string    `json:"memory"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	OwnerID   string    `json:"user_id,omitempty"`
}

// NewRecord builds a freshly added record.
func NewRecord(id, text, ownerID string, now time.Time) Record {
	return Record{
		ID:        id,
		Text:      text,
		Hash:      Hash(text),
		CreatedAt: now,
		UpdatedAt: now,
		OwnerID:   ownerID,
	}
}

// WithText returns r with new text, keeping its id, owner and creation time.
func (r Record) WithText(text string, now time.Time) Record {
	r.Text = text
	r.Hash = Hash(text)
	r.UpdatedAt = now
	return r
}

// Hash is the hex md5 of text, used as a change fingerprint.
func Hash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Event is the reconciliation decision for a single fact.
type Event string

const (
	EventAdd    Event = "ADD"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"
	EventNone   Event = "NONE"
)

// ParseEvent matches s against the four events, ignoring case and
// surrounding space.
func ParseEvent(s string) (Event, bool) {
	switch e := Event(strings.ToUpper(strings.TrimSpace(s))); e {
	case EventAdd, EventUpdate, EventDelete, EventNone:
		return e, true
	}
	return "", false
}

// Operation is a reconciled change to the store.
type Operation struct {
	ID           string `json:"id"`
	Text         string `json:"memory"`
	Event        Event  `json:"event"`
	PreviousText string `json:"previous_memory,omitempty"`
}

// Select filters records by owner and, when query is non-empty, by
// case-insensitive substring, then orders them by creation time and id and
// truncates to limit (limit <= 0 keeps everything). Drivers share it so every
// backend answers reads identically.
func Select(records []Record, query, ownerID string, limit int) []Record {
	needle := strings.ToLower(query)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if ownerID != "" && r.OwnerID != ownerID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Text), needle) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
