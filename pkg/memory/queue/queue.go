// Package queue serializes memory mutations per owner.
//
// Each owner id gets its own lane: a buffered channel drained by a single
// goroutine started on first use. Writes for one session therefore never
// interleave, while different sessions proceed in parallel. Callers block
// until their job has been applied and receive its result. A lane that stays
// idle for IdleTimeout is retired and restarted on the owner's next job, so
// only recently active owners hold a goroutine.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
	"github.com/papercomputeco/specialist/pkg/memory"
)

var (
	defaultLaneSize    uint = 64
	defaultIdleTimeout      = 5 * time.Minute
)

// ErrClosed is returned for jobs submitted after Close.
var ErrClosed = errors.New("memory queue closed")

// Store is the subset of *memory.Memory the queue writes through.
type Store interface {
	Add(ctx context.Context, messages []llm.Message, ownerID string) ([]memory.Operation, error)
	AddFacts(ctx context.Context, facts []string, ownerID string) ([]memory.Operation, error)
}

// Config is the configuration options for the queue.
type Config struct {
	// LaneSize is the capacity of each owner's buffered job channel
	// (defaults to 64).
	LaneSize uint

	// IdleTimeout retires a lane after this long without jobs
	// (defaults to 5 minutes).
	IdleTimeout time.Duration

	Logger *slog.Logger
}

type result struct {
	ops []memory.Operation
	err error
}

type job struct {
	ctx      context.Context
	owner    string
	messages []llm.Message
	facts    []string
	done     chan result
}

// lane is one owner's job channel. pending counts jobs handed out by
// Queue.lane that the writer has not received yet; it is guarded by
// Queue.lanesMu and keeps the lane from retiring under a pending send.
type lane struct {
	jobs    chan job
	pending int
}

// Queue runs one single-writer lane per owner id.
type Queue struct {
	store       Store
	laneSize    uint
	idleTimeout time.Duration
	logger      *slog.Logger

	// mu guards closed; enqueuers hold it for reading so Close waits for
	// in-flight sends before closing lanes.
	mu     sync.RWMutex
	closed bool

	lanesMu sync.Mutex
	lanes   map[string]*lane

	wg sync.WaitGroup
}

// New creates a Queue writing through store.
func New(store Store, cfg Config) *Queue {
	if cfg.LaneSize == 0 {
		cfg.LaneSize = defaultLaneSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &Queue{
		store:       store,
		laneSize:    cfg.LaneSize,
		idleTimeout: cfg.IdleTimeout,
		logger:      logger.OrNop(cfg.Logger),
		lanes:       make(map[string]*lane),
	}
}

// Add extracts and reconciles messages into ownerID's records, waiting for
// every earlier job of the same owner to finish first.
func (q *Queue) Add(ctx context.Context, messages []llm.Message, ownerID string) ([]memory.Operation, error) {
	return q.submit(ctx, job{ctx: ctx, owner: ownerID, messages: messages})
}

// AddFacts reconciles already extracted facts into ownerID's records.
func (q *Queue) AddFacts(ctx context.Context, facts []string, ownerID string) ([]memory.Operation, error) {
	return q.submit(ctx, job{ctx: ctx, owner: ownerID, facts: facts})
}

// Close stops accepting jobs and waits for queued jobs to drain.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.lanesMu.Lock()
	for _, l := range q.lanes {
		close(l.jobs)
	}
	q.lanesMu.Unlock()

	q.wg.Wait()
}

func (q *Queue) submit(ctx context.Context, j job) ([]memory.Operation, error) {
	if j.owner == "" {
		return nil, memory.ErrEmptyOwner
	}
	j.done = make(chan result, 1)

	if err := q.enqueue(ctx, j); err != nil {
		return nil, err
	}

	select {
	case r := <-j.done:
		return r.ops, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue) enqueue(ctx context.Context, j job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	l := q.lane(j.owner)
	select {
	case l.jobs <- j:
		q.logger.Debug("memory job queued", "owner", j.owner)
		return nil
	case <-ctx.Done():
		q.release(l)
		return ctx.Err()
	}
}

// lane returns the owner's lane with one job reserved, starting its writer
// when the owner has none.
func (q *Queue) lane(owner string) *lane {
	q.lanesMu.Lock()
	defer q.lanesMu.Unlock()

	l, ok := q.lanes[owner]
	if !ok {
		l = &lane{jobs: make(chan job, q.laneSize)}
		q.lanes[owner] = l
		q.wg.Add(1)
		go q.writer(owner, l)
	}
	l.pending++
	return l
}

// release drops a reservation taken by lane.
func (q *Queue) release(l *lane) {
	q.lanesMu.Lock()
	l.pending--
	q.lanesMu.Unlock()
}

// retire removes an idle lane. It fails while a job is reserved.
func (q *Queue) retire(owner string, l *lane) bool {
	q.lanesMu.Lock()
	defer q.lanesMu.Unlock()

	if l.pending > 0 {
		return false
	}
	if q.lanes[owner] == l {
		delete(q.lanes, owner)
	}
	return true
}

func (q *Queue) writer(owner string, l *lane) {
	defer q.wg.Done()
	q.logger.Debug("memory writer started", "owner", owner)

	idle := time.NewTimer(q.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case j, ok := <-l.jobs:
			if !ok {
				q.logger.Debug("memory writer stopped", "owner", owner)
				return
			}
			q.release(l)
			j.done <- q.process(j)
			idle.Reset(q.idleTimeout)

		case <-idle.C:
			if q.retire(owner, l) {
				q.logger.Debug("memory writer retired", "owner", owner)
				return
			}
			idle.Reset(q.idleTimeout)
		}
	}
}

func (q *Queue) process(j job) result {
	if err := j.ctx.Err(); err != nil {
		return result{err: err}
	}

	var r result
	if j.facts != nil {
		r.ops, r.err = q.store.AddFacts(j.ctx, j.facts, j.owner)
	} else {
		r.ops, r.err = q.store.Add(j.ctx, j.messages, j.owner)
	}

	if r.err != nil {
		q.logger.Error("memory update failed", "owner", j.owner, "error", r.err)
	}
	return r
}
