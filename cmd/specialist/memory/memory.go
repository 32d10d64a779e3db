// Package memorycmder provides the memory command for inspecting and
// managing the fact store.
package memorycmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/cmd/specialist/wiring"
	"github.com/papercomputeco/specialist/pkg/cliui"
	"github.com/papercomputeco/specialist/pkg/config"
	"github.com/papercomputeco/specialist/pkg/memory"
	"github.com/papercomputeco/specialist/pkg/utils"
)

const previewLen = 120

const memoryLongDesc string = `Inspect and manage stored memories.

Memories are the facts "specialist chat --memory" extracts from
conversations. Each belongs to an owner, the chat session it was learned in.
The store is selected by "memory.provider" (local or sqlite) and
"memory.path" in config.toml, or by the --memory-provider and --memory-path
flags.

Use subcommands to work with the store:
  specialist memory list              List stored memories
  specialist memory search <query>    Search memories by substring
  specialist memory add <fact>...     Store facts verbatim
  specialist memory delete <id>       Delete a memory
  specialist memory reset             Delete every memory

Examples:
  specialist memory list --owner 6f1c2a9e-...
  specialist memory search coffee
  specialist memory --memory-provider sqlite list`

const memoryShortDesc string = "Inspect and manage stored memories"

func NewMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: memoryShortDesc,
		Long:  memoryLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newResetCmd())

	return cmd
}

// storeFlags holds the flags every subcommand uses to locate the store.
type storeFlags struct {
	path     string
	provider string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryPath, &f.path)
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryProvider, &f.provider)
}

// openStore opens the configured memory store. Stores opened here never
// call a model: added facts are kept verbatim.
func openStore(cmd *cobra.Command) (*memory.Memory, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, []string{
		config.FlagMemoryPath,
		config.FlagMemoryProvider,
	})

	log := wiring.NewLogger(debug)
	driver, err := wiring.NewDriver(wiring.FromViper(v, configDir), log)
	if err != nil {
		return nil, err
	}

	return wiring.NewMemory(wiring.MemoryOptions{
		Driver: driver,
		Logger: log,
	})
}

func printRecords(w io.Writer, records []memory.Record) {
	if len(records) == 0 {
		fmt.Fprintf(w, "\n  %s No memories found.\n\n", cliui.DimStyle.Render("●"))
		return
	}

	fmt.Fprintln(w)
	for _, r := range records {
		fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render(r.ID), utils.Truncate(utils.SingleLine(r.Text), previewLen))

		owner := r.OwnerID
		if owner == "" {
			owner = "<none>"
		}
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf(
			"owner %s, updated %s", owner, r.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		)))
	}
	fmt.Fprintln(w)
}
