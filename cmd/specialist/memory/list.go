package memorycmder

import (
	"fmt"

	"github.com/spf13/cobra"
)

const listLongDesc string = `List stored memories, oldest first.

Without --owner, memories of every owner are listed.

Examples:
  specialist memory list
  specialist memory list --owner 6f1c2a9e-... --limit 20`

const listShortDesc string = "List stored memories"

func newListCmd() *cobra.Command {
	var (
		store storeFlags
		owner string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mem, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer mem.Close()

			records, err := mem.GetAll(cmd.Context(), owner, limit)
			if err != nil {
				return fmt.Errorf("listing memories: %w", err)
			}

			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	store.register(cmd)
	cmd.Flags().StringVar(&owner, "owner", "", "Only list memories of this owner")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of memories (default 100)")

	return cmd
}
