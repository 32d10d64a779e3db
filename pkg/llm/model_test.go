package llm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/specialist/pkg/llm"
)

var _ = Describe("ParseModel", func() {
	DescribeTable("valid model strings",
		func(input, provider, name string) {
			m, err := llm.ParseModel(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Provider).To(Equal(provider))
			Expect(m.Name).To(Equal(name))
		},
		Entry("ollama", "ollama/qwen2.5", "ollama", "qwen2.5"),
		Entry("openai", "openai/gpt-4o-mini", "openai", "gpt-4o-mini"),
		Entry("upper-case provider", "Anthropic/claude-3-5-haiku-latest", "anthropic", "claude-3-5-haiku-latest"),
		Entry("name containing a slash", "groq/meta-llama/llama-4-scout", "groq", "meta-llama/llama-4-scout"),
		Entry("surrounding whitespace", "  mistral/mistral-small  ", "mistral", "mistral-small"),
	)

	DescribeTable("invalid model strings",
		func(input string) {
			_, err := llm.ParseModel(input)
			Expect(err).To(MatchError(llm.ErrInvalidModel))
		},
		Entry("no slash", "llama3.2"),
		Entry("empty provider", "/llama3.2"),
		Entry("empty name", "ollama/"),
		Entry("empty string", ""),
	)

	It("round-trips through String", func() {
		m, err := llm.ParseModel("ollama/llama3.2")
		Expect(err).NotTo(HaveOccurred())
		Expect(m.String()).To(Equal("ollama/llama3.2"))
	})
})
