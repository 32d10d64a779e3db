package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/specialist/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("targets credentials.toml in the override directory", func() {
		Expect(mgr.GetTarget()).To(Equal(filepath.Join(tmpDir, "credentials.toml")))
	})

	Describe("Load", func() {
		It("returns empty credentials when no file exists", func() {
			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers).To(BeEmpty())
		})

		It("loads existing credentials", func() {
			data := "version = 0\n\n[providers.groq]\napi_key = \"gsk-test\"\n"
			Expect(os.WriteFile(mgr.GetTarget(), []byte(data), 0o600)).To(Succeed())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers["groq"].APIKey).To(Equal("gsk-test"))
		})

		It("returns an error for malformed TOML", func() {
			Expect(os.WriteFile(mgr.GetTarget(), []byte("not valid [[["), 0o600)).To(Succeed())

			creds, err := mgr.Load()
			Expect(err).To(HaveOccurred())
			Expect(creds).To(BeNil())
		})
	})

	Describe("Save", func() {
		It("writes the file with restricted permissions", func() {
			Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())

			info, err := os.Stat(mgr.GetTarget())
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})

		It("rejects nil credentials", func() {
			Expect(mgr.Save(nil)).NotTo(Succeed())
		})
	})

	Describe("keys", func() {
		It("stores, overwrites and removes keys per provider", func() {
			Expect(mgr.SetKey("openai", "sk-old")).To(Succeed())
			Expect(mgr.SetKey("openai", "sk-new")).To(Succeed())
			Expect(mgr.SetKey("mistral", "ms-key")).To(Succeed())

			key, err := mgr.GetKey("openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-new"))

			Expect(mgr.RemoveKey("openai")).To(Succeed())
			key, err = mgr.GetKey("openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())

			providers, err := mgr.ListProviders()
			Expect(err).NotTo(HaveOccurred())
			Expect(providers).To(Equal([]string{"mistral"}))
		})

		It("lists providers in sorted order", func() {
			Expect(mgr.SetKey("openai", "a")).To(Succeed())
			Expect(mgr.SetKey("anthropic", "b")).To(Succeed())

			providers, err := mgr.ListProviders()
			Expect(err).NotTo(HaveOccurred())
			Expect(providers).To(Equal([]string{"anthropic", "openai"}))
		})
	})

	Describe("Resolve", func() {
		It("prefers the stored key over the environment", func() {
			GinkgoT().Setenv("ANTHROPIC_API_KEY", "env-key")
			Expect(mgr.SetKey("anthropic", "stored-key")).To(Succeed())

			Expect(mgr.Resolve("anthropic")).To(Equal("stored-key"))
		})

		It("falls back to the provider environment variable", func() {
			GinkgoT().Setenv("GROQ_API_KEY", "env-groq")
			Expect(mgr.Resolve("groq")).To(Equal("env-groq"))
		})

		It("consults only the environment for a nil manager", func() {
			GinkgoT().Setenv("MISTRAL_API_KEY", "env-mistral")
			var none *credentials.Manager
			Expect(none.Resolve("mistral")).To(Equal("env-mistral"))
		})

		It("returns empty for providers without keys", func() {
			Expect(mgr.Resolve("ollama")).To(BeEmpty())
		})
	})
})

var _ = Describe("provider helpers", func() {
	It("maps providers to environment variables", func() {
		Expect(credentials.EnvVarForProvider("openai")).To(Equal("OPENAI_API_KEY"))
		Expect(credentials.EnvVarForProvider("groq")).To(Equal("GROQ_API_KEY"))
		Expect(credentials.EnvVarForProvider("ollama")).To(BeEmpty())
	})

	It("knows which providers take keys", func() {
		Expect(credentials.IsSupportedProvider("mistral")).To(BeTrue())
		Expect(credentials.IsSupportedProvider("ollama")).To(BeFalse())
	})
})
