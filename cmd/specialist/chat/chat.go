// Package chatcmder provides the chat command for interactive LLM chat with
// optional long-term memory.
package chatcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/cmd/specialist/wiring"
	"github.com/papercomputeco/specialist/pkg/cliui"
	"github.com/papercomputeco/specialist/pkg/config"
	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/memory"
	"github.com/papercomputeco/specialist/pkg/usage"
)

type chatCommander struct {
	model    string
	file     string
	system   string
	memory   bool
	debug    bool
	settings wiring.Settings

	in  io.Reader
	out io.Writer
}

const chatLongDesc string = `Start an interactive chat session.

Any positional arguments are joined into the system prompt.

With --memory, facts about you are extracted from every turn and stored
per session in the memory store (.specialist/memories by default). Before
each reply the session's facts are added to the system prompt, and the
transcript is cleared after each reply so the model relies on memory
rather than history.

Commands inside the chat:
  q, /exit          End the session
  ?                 Show the current context
  ?m                List the memories of this session
  ?reset            Start a new memory session
  file:<path>       Attach an image or PDF

Examples:
  specialist chat
  specialist chat -m openai/gpt-4o-mini "You are a terse assistant"
  specialist chat --memory --memory-provider sqlite`

const chatShortDesc string = "Interactive LLM chat"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [system prompt...]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagChatModel,
				config.FlagMemory,
				config.FlagMemoryPath,
				config.FlagMemoryProvider,
				config.FlagMemoryModel,
				config.FlagUsage,
			})

			cmder.model = v.GetString("model.chat")
			cmder.memory = v.GetBool("memory.enabled")
			cmder.settings = wiring.FromViper(v, configDir)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.system = strings.Join(args, " ")
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	var (
		memoryPath     string
		memoryProvider string
		memoryModel    string
		usageEnabled   bool
	)
	config.AddStringFlag(cmd, config.Flags, config.FlagChatModel, &cmder.model)
	config.AddBoolFlag(cmd, config.Flags, config.FlagMemory, &cmder.memory)
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryPath, &memoryPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryProvider, &memoryProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryModel, &memoryModel)
	config.AddBoolFlag(cmd, config.Flags, config.FlagUsage, &usageEnabled)
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Attach an image or PDF before the first turn")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	log := wiring.NewLogger(c.debug)

	model, err := llm.ParseModel(c.model)
	if err != nil {
		return err
	}

	client, err := wiring.NewClient(c.settings, model, log)
	if err != nil {
		return err
	}

	tracker, err := wiring.NewTracker(c.settings, log)
	if err != nil {
		return err
	}

	cfg := sessionConfig{
		Model:  model,
		System: c.system,
		In:     c.in,
		Out:    c.out,
		Logger: log,
	}

	op := usage.OpStream
	if c.memory {
		mem, err := c.newMemory(model, client, tracker, log)
		if err != nil {
			return err
		}
		defer mem.Close()

		cfg.Memory = mem
		op = usage.OpStreamWithMemory
	}

	cfg.Client = usage.Meter(client, usage.MeterConfig{
		Tracker:   tracker,
		Model:     model.String(),
		Operation: op,
		Logger:    log,
	})

	s := newSession(cfg)
	c.printIntro(model)

	if c.file != "" {
		s.attach(ctx, c.file)
	}

	if err := s.run(ctx); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("Chat session ended."))
	return nil
}

// newMemory opens the memory store. Extraction uses the memory model when
// one is configured and the chat client otherwise.
func (c *chatCommander) newMemory(chatModel llm.Model, chatClient llm.Client, tracker usage.Tracker, log *slog.Logger) (*memory.Memory, error) {
	memModel, err := wiring.ResolveMemoryModel(c.settings, chatModel)
	if err != nil {
		return nil, err
	}

	memClient := chatClient
	if memModel != chatModel {
		memClient, err = wiring.NewClient(c.settings, memModel, log)
		if err != nil {
			return nil, err
		}
	}

	driver, err := wiring.NewDriver(c.settings, log)
	if err != nil {
		return nil, err
	}

	mem, err := wiring.NewMemory(wiring.MemoryOptions{
		Driver:  driver,
		Client:  memClient,
		Model:   memModel,
		Tracker: tracker,
		Logger:  log,
	})
	if err != nil {
		driver.Close()
		return nil, err
	}
	return mem, nil
}

func (c *chatCommander) printIntro(model llm.Model) {
	mode := "standard"
	if c.memory {
		mode = "memory-enabled"
	}

	fmt.Fprintf(c.out, "\n  %s Starting %s chat with %s\n", cliui.SuccessMark, mode, cliui.NameStyle.Render(model.String()))
	if c.memory {
		path, err := wiring.MemoryPath(c.settings)
		if err == nil {
			fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Memory storage:"), path)
		}
	}
	fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("Type 'q' or '/exit' to quit, '?' to see the context."))
	if c.memory {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("'?m' lists stored memories, '?reset' starts a new memory session."))
	}
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Attach files with file:/path/to/document.pdf"))
}
