package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("serves defaults without a config file", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("model.complete")).To(Equal("ollama/qwen2.5"))
		Expect(v.GetString("memory.provider")).To(Equal("local"))
		Expect(v.GetBool("memory.enabled")).To(BeFalse())
		Expect(v.GetBool("usage.enabled")).To(BeTrue())
	})

	It("reads config.toml over the defaults", func() {
		data := "[memory]\nprovider = \"sqlite\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("memory.provider")).To(Equal("sqlite"))
	})

	It("lets SPECIALIST_ environment variables override the file", func() {
		data := "[model]\nchat = \"ollama/phi3\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("SPECIALIST_MODEL_CHAT", "openai/gpt-4o-mini")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("model.chat")).To(Equal("openai/gpt-4o-mini"))
	})

	It("returns an error for a malformed config file", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[[["), 0o600)).To(Succeed())

		_, err := config.InitViper(tmpDir)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("flag registry", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("registers string flags with registry name, shorthand and default", func() {
		cmd := &cobra.Command{Use: "test"}
		var model string
		config.AddStringFlag(cmd, config.Flags, config.FlagChatModel, &model)

		f := cmd.Flags().Lookup("model")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("m"))
		Expect(f.DefValue).To(Equal("ollama/llama3.2"))
		Expect(model).To(Equal("ollama/llama3.2"))
	})

	It("uses the per-command viper key for shared flag names", func() {
		cmd := &cobra.Command{Use: "test"}
		var model string
		config.AddStringFlag(cmd, config.Flags, config.FlagCompleteModel, &model)

		Expect(cmd.Flags().Lookup("model").DefValue).To(Equal("ollama/qwen2.5"))
	})

	It("registers bool flags", func() {
		cmd := &cobra.Command{Use: "test"}
		var enabled bool
		config.AddBoolFlag(cmd, config.Flags, config.FlagMemory, &enabled)

		f := cmd.Flags().Lookup("memory")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("false"))
	})

	It("ignores unknown registry keys", func() {
		cmd := &cobra.Command{Use: "test"}
		var s string
		config.AddStringFlag(cmd, config.Flags, "nonexistent", &s)
		Expect(cmd.Flags().HasFlags()).To(BeFalse())
	})

	It("binds set flags above file values", func() {
		data := "[memory]\npath = \"/from/file\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var path string
		config.AddStringFlag(cmd, config.Flags, config.FlagMemoryPath, &path)
		Expect(cmd.Flags().Set("memory-path", "/from/flag")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagMemoryPath})
		Expect(v.GetString("memory.path")).To(Equal("/from/flag"))
	})

	It("falls through to the file when the flag is not set", func() {
		data := "[memory]\nprovider = \"sqlite\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var provider string
		config.AddStringFlag(cmd, config.Flags, config.FlagMemoryProvider, &provider)

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagMemoryProvider, "nonexistent"})
		Expect(v.GetString("memory.provider")).To(Equal("sqlite"))
	})
})
