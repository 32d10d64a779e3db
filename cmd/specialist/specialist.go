// Package specialistcmder
package specialistcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/specialist/cmd/specialist/auth"
	chatcmder "github.com/papercomputeco/specialist/cmd/specialist/chat"
	completecmder "github.com/papercomputeco/specialist/cmd/specialist/complete"
	configcmder "github.com/papercomputeco/specialist/cmd/specialist/config"
	mcpcmder "github.com/papercomputeco/specialist/cmd/specialist/mcp"
	memorycmder "github.com/papercomputeco/specialist/cmd/specialist/memory"
	usagecmder "github.com/papercomputeco/specialist/cmd/specialist/usage"
	versioncmder "github.com/papercomputeco/specialist/cmd/version"
)

const specialistLongDesc string = `Specialist is a conversational agent toolkit with long-term memory.

Models are named provider/model, where provider is one of ollama, openai,
anthropic, mistral or groq:
  specialist complete "prompt"        Run a single completion
  specialist chat --memory            Chat, remembering facts about you
  specialist memory list              Inspect the memory store
  specialist mcp                      Serve the memory store over MCP
  specialist usage                    Show token usage`

const specialistShortDesc string = "Specialist - conversational agents with memory"

func NewSpecialistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "specialist",
		Short:        specialistShortDesc,
		Long:         specialistLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .specialist/ config directory")

	// Add subcommands
	cmd.AddCommand(completecmder.NewCompleteCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(usagecmder.NewUsageCmd())
	cmd.AddCommand(memorycmder.NewMemoryCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
