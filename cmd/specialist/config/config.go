// Package configcmder provides the config command for managing persistent
// specialist configuration stored in the .specialist/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/pkg/cliui"
	"github.com/papercomputeco/specialist/pkg/config"
)

const configLongDesc string = `Manage persistent specialist configuration.

Configuration is stored as config.toml in the .specialist/ directory and
provides default values for command flags. CLI flags take precedence over
SPECIALIST_* environment variables, which take precedence over config file
values.

Keys use dotted notation matching the TOML section structure:
  model.complete, model.chat,
  providers.ollama_url, providers.openai_url, providers.anthropic_url,
  providers.mistral_url, providers.groq_url,
  memory.enabled, memory.provider, memory.path, memory.model,
  usage.enabled, usage.path,
  mcp.listen

Use subcommands to get, set, or list configuration values:
  specialist config set <key> <value>    Set a configuration value
  specialist config get <key>            Get a configuration value
  specialist config list                 List all configuration values

Examples:
  specialist config set model.chat anthropic/claude-3-5-haiku-latest
  specialist config set memory.enabled true
  specialist config get model.complete
  specialist config list`

const configShortDesc string = "Manage persistent specialist configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeyError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(out io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
