package memorycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/pkg/cliui"
)

const resetLongDesc string = `Delete every stored memory for every owner.

Examples:
  specialist memory reset`

const resetShortDesc string = "Delete every memory"

func newResetCmd() *cobra.Command {
	var store storeFlags

	cmd := &cobra.Command{
		Use:   "reset",
		Short: resetShortDesc,
		Long:  resetLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mem, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer mem.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			err = cliui.Step(out, "Removing all memories", func() error {
				return mem.Reset(cmd.Context())
			})
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("resetting memories: %w", err)
			}
			return nil
		},
	}

	store.register(cmd)

	return cmd
}
