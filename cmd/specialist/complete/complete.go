// Package completecmder provides the complete command for one-shot
// completions.
package completecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/cmd/specialist/wiring"
	"github.com/papercomputeco/specialist/pkg/attachment"
	"github.com/papercomputeco/specialist/pkg/cliui"
	"github.com/papercomputeco/specialist/pkg/config"
	"github.com/papercomputeco/specialist/pkg/conversation"
	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/usage"
)

type completeCommander struct {
	model    string
	file     string
	prompt   string
	debug    bool
	settings wiring.Settings

	out    io.Writer
	logger *slog.Logger
}

const completeLongDesc string = `Run a single completion and print the result.

The prompt is used both as the system prompt and as the user message.
Completions are rendered as markdown when writing to a terminal.

Examples:
  specialist complete "Summarize the plot of Hamlet in three lines"
  specialist complete -m openai/gpt-4o-mini "Write a haiku about Go"
  specialist complete -m anthropic/claude-3-5-haiku-latest -f diagram.png "Describe this image"`

const completeShortDesc string = "Run a single completion"

func NewCompleteCmd() *cobra.Command {
	cmder := &completeCommander{}

	cmd := &cobra.Command{
		Use:   "complete [prompt...]",
		Short: completeShortDesc,
		Long:  completeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagCompleteModel,
				config.FlagUsage,
			})

			cmder.model = v.GetString("model.complete")
			cmder.settings = wiring.FromViper(v, configDir)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.prompt = strings.Join(args, " ")
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	var usageEnabled bool
	config.AddStringFlag(cmd, config.Flags, config.FlagCompleteModel, &cmder.model)
	config.AddBoolFlag(cmd, config.Flags, config.FlagUsage, &usageEnabled)
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Attach an image or PDF to the prompt")

	return cmd
}

func (c *completeCommander) run(ctx context.Context) error {
	c.logger = wiring.NewLogger(c.debug)

	model, err := llm.ParseModel(c.model)
	if err != nil {
		return err
	}

	client, err := wiring.NewClient(c.settings, model, c.logger)
	if err != nil {
		return err
	}

	tracker, err := wiring.NewTracker(c.settings, c.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s %s\n", cliui.KeyStyle.Render("[Model]"), model)
	fmt.Fprintf(c.out, "%s %s\n", cliui.KeyStyle.Render("[Prompt]"), c.prompt)

	conv, err := c.buildConversation()
	if err != nil {
		return err
	}

	metered := usage.Meter(client, usage.MeterConfig{
		Tracker:   tracker,
		Model:     model.String(),
		Operation: usage.OpComplete,
		Logger:    c.logger,
	})

	c.logger.Debug("running completion",
		"model", model.String(),
		"messages", conv.Len(),
	)

	resp, err := metered.Complete(ctx, conv.Request(model.Name))
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}

	return cliui.RenderMarkdownTo(c.out, resp.Text())
}

// buildConversation uses the prompt as the system prompt and the user turn,
// with the optional attachment placed ahead of the user turn.
func (c *completeCommander) buildConversation() (conversation.Context, error) {
	conv := conversation.New(c.prompt)

	if c.file != "" {
		a, err := attachment.Load(c.file)
		if err != nil {
			return conv, err
		}
		conv, err = conv.AddAttachment(a)
		if err != nil {
			return conv, err
		}
	}

	return conv.AddUserMessage(c.prompt), nil
}
