package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/pkg/cliui"
	"github.com/papercomputeco/specialist/pkg/config"
	"github.com/papercomputeco/specialist/pkg/llm"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file stored in
the .specialist/ directory. Model keys must have the form provider/model.

Examples:
  specialist config set model.complete openai/gpt-4o-mini
  specialist config set providers.ollama_url http://gpu-box:11434
  specialist config set memory.provider sqlite
  specialist config set usage.enabled false`

const setShortDesc string = "Set a configuration value"

// modelKeys hold "provider/model" strings.
var modelKeys = map[string]bool{
	"model.complete": true,
	"model.chat":     true,
	"memory.model":   true,
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func runSet(out io.Writer, key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return validKeyError(key)
	}

	if modelKeys[key] && value != "" {
		if _, err := llm.ParseModel(value); err != nil {
			return err
		}
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	printTarget(out, cfger)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
