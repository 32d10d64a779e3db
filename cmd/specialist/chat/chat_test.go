package chatcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/papercomputeco/specialist/cmd/specialist/chat"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Name()).To(Equal("chat"))
	})

	It("has a --model flag defaulting to the chat model", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("m"))
		Expect(flag.DefValue).To(Equal("ollama/llama3.2"))
	})

	It("has the memory flags", func() {
		cmd := chatcmder.NewChatCmd()
		for _, name := range []string{"memory", "memory-path", "memory-provider", "memory-model", "usage"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("memory").DefValue).To(Equal("false"))
		Expect(cmd.Flags().Lookup("memory-provider").DefValue).To(Equal("local"))
	})

	It("has a --file flag", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("file")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("f"))
	})
})
