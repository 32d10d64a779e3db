// Package llm holds the provider-agnostic chat model shared by the
// completion clients, the conversation context and the memory subsystem.
package llm

import "strings"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Content block types.
const (
	BlockText     = "text"
	BlockImage    = "image"
	BlockDocument = "document"
)

// Message represents a single message in a conversation.
// Content is stored as an array of ContentBlocks to support multimodal content
// (text, images, documents) in a provider-agnostic way.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock represents a single piece of content within a message.
// The Type field determines which other fields are populated.
type ContentBlock struct {
	Type string `json:"type"` // "text", "image", "document"

	// Text content (type="text")
	Text string `json:"text,omitempty"`

	// Binary content (type="image" or type="document"), base64 encoded.
	Data      string `json:"data,omitempty"`
	MediaType string `json:"media_type,omitempty"` // MIME type (e.g., "image/png")
	Filename  string `json:"filename,omitempty"`
}

// NewTextMessage creates a simple text message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{Type: BlockText, Text: text},
		},
	}
}

// GetText returns the concatenated text content from all text blocks in the message.
func (m *Message) GetText() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == BlockText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// IsTextOnly reports whether every block in the message is text.
// A message with no blocks is not considered text only.
func (m *Message) IsTextOnly() bool {
	if len(m.Content) == 0 {
		return false
	}
	for _, block := range m.Content {
		if block.Type != BlockText {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	blocks := make([]ContentBlock, len(m.Content))
	copy(blocks, m.Content)
	return Message{Role: m.Role, Content: blocks}
}

// CloneMessages deep copies a message slice.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
