package memorycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/pkg/cliui"
)

const deleteLongDesc string = `Delete a memory by id.

Examples:
  specialist memory delete 3b0f7c1e-...`

const deleteShortDesc string = "Delete a memory"

func newDeleteCmd() *cobra.Command {
	var store storeFlags

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer mem.Close()

			found, err := mem.Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("deleting memory: %w", err)
			}
			if !found {
				return fmt.Errorf("memory not found: %q", args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Deleted %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(args[0]))
			return nil
		},
	}

	store.register(cmd)

	return cmd
}
