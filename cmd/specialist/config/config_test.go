package configcmder_test

import (
	"bytes"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/specialist/cmd/specialist/config"
	"github.com/papercomputeco/specialist/pkg/config"
	"github.com/papercomputeco/specialist/pkg/llm"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmds := configcmder.NewConfigCmd().Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	execute := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		cmd.SetOut(out)
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		return cmd.Execute()
	}

	loaded := func() *config.Config {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(execute("set", "model.chat", "anthropic/claude-3-5-haiku-latest")).To(Succeed())

			Expect(filepath.Join(tmpDir, "config.toml")).To(BeARegularFile())
			Expect(loaded().Model.Chat).To(Equal("anthropic/claude-3-5-haiku-latest"))
		})

		It("sets booleans", func() {
			Expect(execute("set", "memory.enabled", "true")).To(Succeed())
			Expect(loaded().Memory.Enabled).To(BeTrue())
		})

		It("rejects unknown keys", func() {
			Expect(execute("set", "invalid_key", "value")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("rejects malformed model strings", func() {
			Expect(execute("set", "model.complete", "gpt-4o")).To(MatchError(llm.ErrInvalidModel))
		})

		It("rejects invalid bool values", func() {
			Expect(execute("set", "usage.enabled", "sometimes")).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			Expect(execute("set", "model.chat")).To(HaveOccurred())
			Expect(execute("set")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(execute("set", "memory.provider", "sqlite")).To(Succeed())
			out.Reset()

			Expect(execute("get", "memory.provider")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("sqlite"))
		})

		It("falls back to defaults", func() {
			Expect(execute("get", "model.complete")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("ollama/qwen2.5"))
		})

		It("reports unset values", func() {
			Expect(execute("get", "memory.path")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("get", "invalid_key")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(execute("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
			Expect(out.String()).To(ContainSubstring(`"ollama/llama3.2"`))
		})
	})
})
