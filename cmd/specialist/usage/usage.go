// Package usagecmder provides the usage command that summarizes the token
// usage log.
package usagecmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/cmd/specialist/wiring"
	"github.com/papercomputeco/specialist/pkg/cliui"
	"github.com/papercomputeco/specialist/pkg/config"
	"github.com/papercomputeco/specialist/pkg/usage"
)

type usageCommander struct {
	jsonOutput bool
	debug      bool
	settings   wiring.Settings

	out io.Writer
}

const usageLongDesc string = `Display AI usage statistics.

Every completion, chat turn and memory operation is appended to usage.json
in the .specialist/ directory (see "usage.enabled" and "usage.path" in
config.toml). This command prints the totals and a breakdown per model and
per operation.

Examples:
  specialist usage
  specialist usage --json`

const usageShortDesc string = "Display AI usage statistics"

func NewUsageCmd() *cobra.Command {
	cmder := &usageCommander{}

	cmd := &cobra.Command{
		Use:   "usage",
		Short: usageShortDesc,
		Long:  usageLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cmder.settings = wiring.FromViper(v, configDir)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonOutput, "json", false, "Print the statistics as JSON")

	return cmd
}

func (c *usageCommander) run(cmd *cobra.Command) error {
	path, err := wiring.UsagePath(c.settings)
	if err != nil {
		return err
	}

	tracker := usage.NewFileTracker(path, wiring.NewLogger(c.debug))
	stats, err := usage.Load(cmd.Context(), tracker)
	if err != nil {
		return fmt.Errorf("failed to retrieve usage statistics: %w", err)
	}

	if c.jsonOutput {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	PrintStats(c.out, stats)
	return nil
}

// PrintStats writes the human-readable report for stats.
func PrintStats(w io.Writer, stats usage.Stats) {
	fmt.Fprintf(w, "\n  %s\n\n", cliui.HeaderStyle.Render("AI Usage Statistics"))

	fmt.Fprintf(w, "  %s %d\n", cliui.KeyStyle.Render("Total Calls:"), stats.TotalCalls)
	fmt.Fprintf(w, "  %s %d\n", cliui.KeyStyle.Render("Total Tokens:"), stats.TotalTokens)
	fmt.Fprintf(w, "  %s %d prompt, %d completion\n",
		cliui.DimStyle.Render("  of which"),
		stats.TotalPromptTokens,
		stats.TotalCompletionTokens,
	)

	fmt.Fprintf(w, "\n  %s\n", cliui.KeyStyle.Render("Usage by Model:"))
	if len(stats.CallsByModel) == 0 {
		fmt.Fprintf(w, "    %s\n", cliui.DimStyle.Render("none"))
	}
	for _, model := range usage.SortedKeys(stats.CallsByModel) {
		fmt.Fprintf(w, "    %s: %d calls, %d tokens\n",
			cliui.WarnStyle.Render(model),
			stats.CallsByModel[model],
			stats.TokensByModel[model],
		)
	}

	fmt.Fprintf(w, "\n  %s\n", cliui.KeyStyle.Render("Usage by Operation:"))
	if len(stats.CallsByOperation) == 0 {
		fmt.Fprintf(w, "    %s\n", cliui.DimStyle.Render("none"))
	}
	for _, op := range usage.SortedKeys(stats.CallsByOperation) {
		fmt.Fprintf(w, "    %s: %d calls\n",
			cliui.WarnStyle.Render(op),
			stats.CallsByOperation[op],
		)
	}

	fmt.Fprintln(w)
}
