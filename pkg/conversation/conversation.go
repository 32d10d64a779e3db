// Package conversation holds an immutable chat transcript.
//
// A Context always starts with exactly one system message. Every mutator
// returns a new Context and leaves the receiver untouched, so a Context can
// be kept as a snapshot and shared without copying.
package conversation

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/specialist/pkg/attachment"
	"github.com/papercomputeco/specialist/pkg/llm"
)

// Usage accumulates token counts across completion calls.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	Calls            int `json:"calls"`
}

// Add returns u with one more call and the given counts. A nil usage still
// counts the call.
func (u Usage) Add(in *llm.Usage) Usage {
	u.Calls++
	if in != nil {
		u.PromptTokens += in.PromptTokens
		u.CompletionTokens += in.CompletionTokens
		u.TotalTokens += in.TotalTokens
	}
	return u
}

// Context is an ordered list of messages with the system message first.
type Context struct {
	messages []llm.Message
	usage    Usage
}

// New creates a context holding only the system prompt.
func New(systemPrompt string) Context {
	return Context{
		messages: []llm.Message{llm.NewTextMessage(llm.RoleSystem, systemPrompt)},
	}
}

// Messages returns a deep copy of the transcript.
func (c Context) Messages() []llm.Message {
	return llm.CloneMessages(c.messages)
}

// Len returns the number of messages, including the system message.
func (c Context) Len() int {
	return len(c.messages)
}

// SystemMessage returns the text of the system message.
func (c Context) SystemMessage() string {
	if len(c.messages) == 0 {
		return ""
	}
	return c.messages[0].GetText()
}

// WithSystemMessage replaces the system message.
func (c Context) WithSystemMessage(text string) Context {
	msgs := c.Messages()
	if len(msgs) == 0 {
		msgs = []llm.Message{{}}
	}
	msgs[0] = llm.NewTextMessage(llm.RoleSystem, text)
	c.messages = msgs
	return c
}

func (c Context) AddUserMessage(text string) Context {
	return c.append(llm.NewTextMessage(llm.RoleUser, text))
}

// AddRichUserMessage appends a user message made of several blocks.
func (c Context) AddRichUserMessage(blocks []llm.ContentBlock) Context {
	content := make([]llm.ContentBlock, len(blocks))
	copy(content, blocks)
	return c.append(llm.Message{Role: llm.RoleUser, Content: content})
}

func (c Context) AddAssistantResponse(text string) Context {
	return c.append(llm.NewTextMessage(llm.RoleAssistant, text))
}

func (c Context) AddToolMessage(text string) Context {
	return c.append(llm.NewTextMessage(llm.RoleTool, text))
}

// AddAttachment appends the attachment as a user message. Only images and
// PDFs are accepted.
func (c Context) AddAttachment(a attachment.Attachment) (Context, error) {
	msg, err := a.Message()
	if err != nil {
		return c, err
	}
	return c.append(msg), nil
}

// ClearMessages keeps only the system message. Usage is kept.
func (c Context) ClearMessages() Context {
	if len(c.messages) == 0 {
		return c
	}
	c.messages = []llm.Message{c.messages[0].Clone()}
	return c
}

// Usage returns the accumulated usage.
func (c Context) Usage() Usage {
	return c.usage
}

// WithUsage records one completion call.
func (c Context) WithUsage(u *llm.Usage) Context {
	c.usage = c.usage.Add(u)
	return c
}

// Request builds a chat request for model over the current transcript.
func (c Context) Request(model string) *llm.ChatRequest {
	return &llm.ChatRequest{Model: model, Messages: c.Messages()}
}

// String renders the transcript for display.
func (c Context) String() string {
	var b strings.Builder
	for i, m := range c.messages {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i, m.Role, describe(m))
	}
	fmt.Fprintf(&b, "usage: %d calls, %d prompt + %d completion = %d tokens",
		c.usage.Calls, c.usage.PromptTokens, c.usage.CompletionTokens, c.usage.TotalTokens)
	return b.String()
}

func (c Context) append(msg llm.Message) Context {
	msgs := make([]llm.Message, len(c.messages), len(c.messages)+1)
	copy(msgs, c.messages)
	c.messages = append(msgs, msg)
	return c
}

func describe(m llm.Message) string {
	parts := make([]string, 0, len(m.Content))
	for _, b := range m.Content {
		switch b.Type {
		case llm.BlockText:
			parts = append(parts, b.Text)
		default:
			parts = append(parts, fmt.Sprintf("<%s %s %s>", b.Type, b.MediaType, b.Filename))
		}
	}
	return strings.Join(parts, " ")
}
