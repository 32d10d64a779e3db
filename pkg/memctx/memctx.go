// Package memctx decorates a conversation.Context with automatic memory:
// user and assistant turns are fed to a fact store, and stored facts can be
// folded back into the system message before generating a reply.
//
// Like the context it wraps, a memctx.Context is a value; every mutator
// returns a new one. The fact store itself is shared between copies.
package memctx

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/papercomputeco/specialist/pkg/attachment"
	"github.com/papercomputeco/specialist/pkg/conversation"
	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
	"github.com/papercomputeco/specialist/pkg/memory"
)

const (
	memoryHeader = "I know the following about the user:"
	memoryFooter = "Use this information to provide more personalized responses, but don't explicitly reference that you have this memory unless directly relevant to the conversation."
)

// Store is the part of *memory.Memory a memory-aware context needs.
type Store interface {
	Add(ctx context.Context, messages []llm.Message, ownerID string) ([]memory.Operation, error)
	Search(ctx context.Context, query, ownerID string, limit int) ([]memory.Record, error)
	GetAll(ctx context.Context, ownerID string, limit int) ([]memory.Record, error)
}

type options struct {
	newSessionID func() string
	logger       *slog.Logger
}

// Option configures a Context.
type Option func(*options)

// WithSessionIDFunc sets the session id generator used at construction and
// on ResetMemory. Defaults to uuid.NewString.
func WithSessionIDFunc(f func() string) Option {
	return func(o *options) {
		if f != nil {
			o.newSessionID = f
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Context is a conversation whose turns are remembered per session.
type Context struct {
	base      conversation.Context
	system    string
	store     Store
	sessionID string
	opts      *options
}

// New wraps base. The base's current system message is taken as the
// original prompt that enrichment builds on.
func New(base conversation.Context, store Store, opts ...Option) Context {
	o := &options{newSessionID: uuid.NewString}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logger.OrNop(o.logger)

	return Context{
		base:      base,
		system:    base.SystemMessage(),
		store:     store,
		sessionID: o.newSessionID(),
		opts:      o,
	}
}

// SessionID is the owner id facts are stored under.
func (c Context) SessionID() string { return c.sessionID }

// Base returns the wrapped conversation.
func (c Context) Base() conversation.Context { return c.base }

func (c Context) Messages() []llm.Message { return c.base.Messages() }

func (c Context) SystemMessage() string { return c.base.SystemMessage() }

// Usage returns the wrapped conversation's usage.
func (c Context) Usage() conversation.Usage { return c.base.Usage() }

// WithUsage records one completion call on the wrapped conversation.
func (c Context) WithUsage(u *llm.Usage) Context {
	c.base = c.base.WithUsage(u)
	return c
}

// AddUserMessage appends text and feeds the whole transcript to the store.
func (c Context) AddUserMessage(ctx context.Context, text string) Context {
	c.base = c.base.AddUserMessage(text)
	c.remember(ctx, c.base.Messages())
	return c
}

// AddRichUserMessage appends a multi-block user message and feeds the whole
// transcript to the store.
func (c Context) AddRichUserMessage(ctx context.Context, blocks []llm.ContentBlock) Context {
	c.base = c.base.AddRichUserMessage(blocks)
	c.remember(ctx, c.base.Messages())
	return c
}

// AddAssistantResponse appends text and feeds only that reply to the store.
func (c Context) AddAssistantResponse(ctx context.Context, text string) Context {
	c.base = c.base.AddAssistantResponse(text)
	c.remember(ctx, []llm.Message{llm.NewTextMessage(llm.RoleAssistant, text)})
	return c
}

// AddToolMessage appends a tool result. Tool output is not remembered.
func (c Context) AddToolMessage(text string) Context {
	c.base = c.base.AddToolMessage(text)
	return c
}

// AddAttachment appends the file and remembers that it was shared.
func (c Context) AddAttachment(ctx context.Context, a attachment.Attachment) (Context, error) {
	base, err := c.base.AddAttachment(a)
	if err != nil {
		return c, err
	}
	c.base = base
	c.remember(ctx, []llm.Message{llm.NewTextMessage(llm.RoleUser, "Shared a file with me: "+a.Filename)})
	return c, nil
}

// EnrichContextWithMemories appends the session's facts to the original
// system prompt: those matching query, or all of them when query is empty.
// Without facts the system message is reset to the original prompt, so facts
// of an earlier session or since deleted ones never carry over.
func (c Context) EnrichContextWithMemories(ctx context.Context, query string) Context {
	var (
		records []memory.Record
		err     error
	)
	if query != "" {
		records, err = c.store.Search(ctx, query, c.sessionID, 0)
	} else {
		records, err = c.store.GetAll(ctx, c.sessionID, 0)
	}
	if err != nil {
		c.opts.logger.Warn("loading memories for enrichment", "session", c.sessionID, "error", err)
		records = nil
	}
	if len(records) == 0 {
		c.base = c.base.WithSystemMessage(c.system)
		return c
	}

	c.base = c.base.WithSystemMessage(EnrichedPrompt(c.system, records))
	return c
}

// EnrichedPrompt renders system followed by the memory block.
func EnrichedPrompt(system string, records []memory.Record) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = "- " + r.Text
	}
	return system + "\n\n" + memoryHeader + "\n" + strings.Join(lines, "\n") + "\n\n" + memoryFooter
}

// SearchMemory searches the session's facts.
func (c Context) SearchMemory(ctx context.Context, query string, limit int) ([]memory.Record, error) {
	return c.store.Search(ctx, query, c.sessionID, limit)
}

// Memories lists the session's facts.
func (c Context) Memories(ctx context.Context) ([]memory.Record, error) {
	return c.store.GetAll(ctx, c.sessionID, 0)
}

// ResetMemory starts a new session. Facts of the old session are kept but no
// longer visible through this context.
func (c Context) ResetMemory() Context {
	c.sessionID = c.opts.newSessionID()
	return c
}

// ClearMessages keeps only the system message.
func (c Context) ClearMessages() Context {
	c.base = c.base.ClearMessages()
	return c
}

func (c Context) remember(ctx context.Context, msgs []llm.Message) {
	if _, err := c.store.Add(ctx, msgs, c.sessionID); err != nil {
		c.opts.logger.Warn("updating memory", "session", c.sessionID, "error", err)
	}
}
