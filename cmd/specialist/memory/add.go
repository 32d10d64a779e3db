package memorycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/pkg/cliui"
)

const addLongDesc string = `Store facts verbatim.

Each argument is stored as one memory. No model is involved, so facts are
neither rewritten nor reconciled against existing memories.

Examples:
  specialist memory add "Name is John" "Likes cheese pizza" --owner me`

const addShortDesc string = "Store facts verbatim"

func newAddCmd() *cobra.Command {
	var (
		store storeFlags
		owner string
	)

	cmd := &cobra.Command{
		Use:   "add <fact>...",
		Short: addShortDesc,
		Long:  addLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer mem.Close()

			ops, err := mem.AddFacts(cmd.Context(), args, owner)
			if err != nil {
				return fmt.Errorf("adding memories: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			for _, op := range ops {
				fmt.Fprintf(out, "  %s Added %s  %s\n", cliui.SuccessMark, cliui.KeyStyle.Render(op.ID), op.Text)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	store.register(cmd)
	cmd.Flags().StringVar(&owner, "owner", "", "Owner of the new memories")

	return cmd
}
