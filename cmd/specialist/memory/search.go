package memorycmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const searchLongDesc string = `Search stored memories.

Matches memories containing the query, ignoring case.

Examples:
  specialist memory search coffee
  specialist memory search "lives in" --owner 6f1c2a9e-...`

const searchShortDesc string = "Search stored memories"

func newSearchCmd() *cobra.Command {
	var (
		store storeFlags
		owner string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer mem.Close()

			records, err := mem.Search(cmd.Context(), strings.Join(args, " "), owner, limit)
			if err != nil {
				return fmt.Errorf("searching memories: %w", err)
			}

			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	store.register(cmd)
	cmd.Flags().StringVar(&owner, "owner", "", "Only search memories of this owner")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (default 5)")

	return cmd
}
