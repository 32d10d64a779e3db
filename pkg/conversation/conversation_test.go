package conversation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/specialist/pkg/attachment"
	"github.com/papercomputeco/specialist/pkg/conversation"
	"github.com/papercomputeco/specialist/pkg/llm"
)

var _ = Describe("Context", func() {
	var c conversation.Context

	BeforeEach(func() {
		c = conversation.New("You are a test assistant")
	})

	It("starts with the system message", func() {
		Expect(c.Len()).To(Equal(1))
		Expect(c.Messages()[0].Role).To(Equal(llm.RoleSystem))
		Expect(c.SystemMessage()).To(Equal("You are a test assistant"))
	})

	It("appends messages in order", func() {
		next := c.AddUserMessage("hi").AddAssistantResponse("hello").AddToolMessage(`{"ok":true}`)

		msgs := next.Messages()
		Expect(msgs).To(HaveLen(4))
		Expect([]string{msgs[1].Role, msgs[2].Role, msgs[3].Role}).To(Equal(
			[]string{llm.RoleUser, llm.RoleAssistant, llm.RoleTool}))
		Expect(msgs[2].GetText()).To(Equal("hello"))
	})

	It("never mutates the receiver", func() {
		a := c.AddUserMessage("one")
		b := a.AddUserMessage("two")
		a2 := a.AddUserMessage("three")

		Expect(c.Len()).To(Equal(1))
		Expect(a.Len()).To(Equal(2))
		Expect(b.Messages()[2].GetText()).To(Equal("two"))
		Expect(a2.Messages()[2].GetText()).To(Equal("three"))
	})

	It("returns copies of messages", func() {
		msgs := c.Messages()
		msgs[0].Content[0].Text = "changed"
		Expect(c.SystemMessage()).To(Equal("You are a test assistant"))
	})

	It("replaces the system message without touching the original", func() {
		next := c.AddUserMessage("hi").WithSystemMessage("new system")
		Expect(next.SystemMessage()).To(Equal("new system"))
		Expect(next.Len()).To(Equal(2))
		Expect(c.SystemMessage()).To(Equal("You are a test assistant"))
	})

	It("copies rich content blocks", func() {
		blocks := []llm.ContentBlock{{Type: llm.BlockText, Text: "look"}}
		next := c.AddRichUserMessage(blocks)
		blocks[0].Text = "changed"
		Expect(next.Messages()[1].GetText()).To(Equal("look"))
	})

	It("adds attachments as user messages", func() {
		a := attachment.Attachment{Filename: "test-image.png", MimeType: "image/png", Data: "dGVzdGltYWdlZGF0YQ=="}

		next, err := c.AddAttachment(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Len()).To(Equal(1))

		msg := next.Messages()[1]
		Expect(msg.Role).To(Equal(llm.RoleUser))
		Expect(msg.Content).To(HaveLen(2))
		Expect(msg.Content[0].Text).To(ContainSubstring("test-image.png"))
		Expect(msg.Content[1].Data).To(Equal(a.Data))
	})

	It("rejects unsupported attachments", func() {
		_, err := c.AddAttachment(attachment.Attachment{Filename: "a.zip", MimeType: "application/zip"})
		Expect(err).To(MatchError(attachment.ErrUnsupportedType))
	})

	It("clears everything but the system message", func() {
		next := c.AddUserMessage("hi").AddAssistantResponse("yo").WithUsage(llm.NewUsage(3, 4, 0)).ClearMessages()
		Expect(next.Len()).To(Equal(1))
		Expect(next.SystemMessage()).To(Equal("You are a test assistant"))
		Expect(next.Usage().Calls).To(Equal(1))
	})

	It("accumulates usage", func() {
		next := c.WithUsage(llm.NewUsage(10, 5, 0)).WithUsage(nil).WithUsage(llm.NewUsage(1, 1, 2))
		Expect(next.Usage()).To(Equal(conversation.Usage{PromptTokens: 11, CompletionTokens: 6, TotalTokens: 17, Calls: 3}))
		Expect(c.Usage().Calls).To(Equal(0))
	})

	It("builds requests and renders itself", func() {
		next := c.AddUserMessage("hi")
		req := next.Request("llama3.2")
		Expect(req.Model).To(Equal("llama3.2"))
		Expect(req.Messages).To(HaveLen(2))
		Expect(next.String()).To(ContainSubstring("[1] user: hi"))
	})
})
