package llm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/specialist/pkg/llm"
)

var _ = Describe("Message", func() {
	It("concatenates text blocks", func() {
		msg := llm.Message{
			Role: llm.RoleUser,
			Content: []llm.ContentBlock{
				{Type: llm.BlockText, Text: "Hello "},
				{Type: llm.BlockImage, Data: "aGk=", MediaType: "image/png"},
				{Type: llm.BlockText, Text: "world"},
			},
		}
		Expect(msg.GetText()).To(Equal("Hello world"))
		Expect(msg.IsTextOnly()).To(BeFalse())
	})

	It("treats a single text block as text only", func() {
		msg := llm.NewTextMessage(llm.RoleAssistant, "hi")
		Expect(msg.IsTextOnly()).To(BeTrue())
	})

	It("does not treat an empty message as text only", func() {
		msg := llm.Message{Role: llm.RoleUser}
		Expect(msg.IsTextOnly()).To(BeFalse())
	})

	It("clones without sharing content blocks", func() {
		original := []llm.Message{llm.NewTextMessage(llm.RoleUser, "a")}
		cloned := llm.CloneMessages(original)
		cloned[0].Content[0].Text = "b"

		Expect(original[0].GetText()).To(Equal("a"))
	})
})

var _ = Describe("ChatRequest", func() {
	It("splits leading system messages from the conversation", func() {
		req := &llm.ChatRequest{
			Messages: []llm.Message{
				llm.NewTextMessage(llm.RoleSystem, "Be brief."),
				llm.NewTextMessage(llm.RoleSystem, "Be kind."),
				llm.NewTextMessage(llm.RoleUser, "hi"),
			},
		}

		system, rest := req.SplitSystem()
		Expect(system).To(Equal("Be brief.\n\nBe kind."))
		Expect(rest).To(HaveLen(1))
		Expect(rest[0].Role).To(Equal(llm.RoleUser))
	})

	It("returns an empty system prompt when none is present", func() {
		req := &llm.ChatRequest{Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")}}
		system, rest := req.SplitSystem()
		Expect(system).To(BeEmpty())
		Expect(rest).To(HaveLen(1))
	})
})

var _ = Describe("NewUsage", func() {
	It("derives a missing total", func() {
		Expect(llm.NewUsage(10, 5, 0).TotalTokens).To(Equal(15))
	})

	It("keeps a reported total", func() {
		Expect(llm.NewUsage(10, 5, 20).TotalTokens).To(Equal(20))
	})
})
