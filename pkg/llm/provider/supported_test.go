package provider_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/specialist/pkg/credentials"
	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/llm/provider"
	"github.com/papercomputeco/specialist/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/specialist/pkg/llm/provider/ollama"
	"github.com/papercomputeco/specialist/pkg/llm/provider/openai"
)

var _ = Describe("New", func() {
	BeforeEach(func() {
		for _, env := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "MISTRAL_API_KEY", "GROQ_API_KEY"} {
			GinkgoT().Setenv(env, "")
		}
	})

	It("builds an ollama client without a key", func() {
		c, err := provider.New(llm.Model{Provider: "ollama", Name: "llama3.2"}, provider.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&ollama.Client{}))
	})

	DescribeTable("keyed providers without a key",
		func(name string) {
			_, err := provider.New(llm.Model{Provider: name, Name: "m"}, provider.Options{})
			Expect(err).To(MatchError(provider.ErrMissingAPIKey))
		},
		Entry("openai", "openai"),
		Entry("anthropic", "anthropic"),
		Entry("mistral", "mistral"),
		Entry("groq", "groq"),
	)

	It("builds openai-compatible clients for mistral and groq", func() {
		GinkgoT().Setenv("MISTRAL_API_KEY", "ms")
		c, err := provider.New(llm.Model{Provider: "mistral", Name: "mistral-small-latest"}, provider.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&openai.Client{}))
	})

	It("builds an anthropic client from an explicit key", func() {
		c, err := provider.New(llm.Model{Provider: "anthropic", Name: "claude-sonnet-4-5"}, provider.Options{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&anthropic.Client{}))
	})

	It("uses keys stored in credentials.toml", func() {
		mgr, err := credentials.NewManager(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.SetKey("groq", "gsk-stored")).To(Succeed())

		var auth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
		}))
		defer server.Close()

		c, err := provider.New(llm.Model{Provider: "groq", Name: "llama"}, provider.Options{CredMgr: mgr, BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Complete(context.Background(), &llm.ChatRequest{Model: "llama"})
		Expect(err).NotTo(HaveOccurred())
		Expect(auth).To(Equal("Bearer gsk-stored"))
	})

	It("rejects unknown providers", func() {
		_, err := provider.New(llm.Model{Provider: "bedrock", Name: "m"}, provider.Options{})
		Expect(err).To(MatchError(provider.ErrUnknownProvider))
	})
})
