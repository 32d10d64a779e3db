// Package mcpcmder provides the mcp command that serves the memory store
// over the Model Context Protocol.
package mcpcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/specialist/api/mcp"
	"github.com/papercomputeco/specialist/cmd/specialist/wiring"
	"github.com/papercomputeco/specialist/pkg/config"
	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/memory"
	"github.com/papercomputeco/specialist/pkg/memory/queue"
)

type mcpCommander struct {
	listen   string
	stdio    bool
	logFile  string
	debug    bool
	settings wiring.Settings

	logger *slog.Logger
}

const mcpLongDesc string = `Serve the memory store over the Model Context Protocol.

Exposes three tools to MCP clients:
  memory_search    Search memories by substring
  memory_list      List memories, optionally for one owner
  memory_add       Store facts for an owner

By default the server speaks streamable HTTP on --listen. With --stdio it
serves a single client over stdin/stdout instead, which is how most desktop
agents launch MCP servers.

When "memory.model" is configured, added facts are reconciled against the
owner's existing memories by that model. Otherwise they are stored verbatim.

With --log-file, records are also appended to the given file as JSON.

Examples:
  specialist mcp
  specialist mcp --log-file ~/.specialist/mcp.log
  specialist mcp --listen :9090
  specialist mcp --stdio --memory-provider sqlite`

const mcpShortDesc string = "Serve the memory store over MCP"

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagMCPListen,
				config.FlagMemoryPath,
				config.FlagMemoryProvider,
				config.FlagMemoryModel,
				config.FlagUsage,
			})

			cmder.listen = v.GetString("mcp.listen")
			cmder.settings = wiring.FromViper(v, configDir)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	var (
		memoryPath     string
		memoryProvider string
		memoryModel    string
		usageEnabled   bool
	)
	config.AddStringFlag(cmd, config.Flags, config.FlagMCPListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryPath, &memoryPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryProvider, &memoryProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryModel, &memoryModel)
	config.AddBoolFlag(cmd, config.Flags, config.FlagUsage, &usageEnabled)
	cmd.Flags().BoolVar(&cmder.stdio, "stdio", false, "Serve over stdin/stdout instead of HTTP")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON log records to this file")

	return cmd
}

func (c *mcpCommander) run(ctx context.Context) error {
	log, closeLog, err := wiring.NewServerLogger(c.debug, c.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	c.logger = log

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mem, err := c.newMemory()
	if err != nil {
		return err
	}
	defer mem.Close()

	q := queue.New(mem, queue.Config{Logger: c.logger})
	defer q.Close()

	server, err := mcp.NewServer(mcp.Config{
		Reader: mem,
		Writer: q,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	if c.stdio {
		c.logger.Info("serving MCP over stdio")
		return server.ServeStdio(ctx)
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", c.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", c.listen, err)
	}

	c.logger.Info("starting MCP server", "listen", listener.Addr().String())
	return serveHTTP(ctx, listener, server.Handler())
}

// newMemory opens the store with model reconciliation when a memory model
// is configured.
func (c *mcpCommander) newMemory() (*memory.Memory, error) {
	driver, err := wiring.NewDriver(c.settings, c.logger)
	if err != nil {
		return nil, err
	}

	opts := wiring.MemoryOptions{
		Driver: driver,
		Logger: c.logger,
	}

	if c.settings.MemoryModel != "" {
		model, err := llm.ParseModel(c.settings.MemoryModel)
		if err != nil {
			driver.Close()
			return nil, fmt.Errorf("parsing memory model: %w", err)
		}

		client, err := wiring.NewClient(c.settings, model, c.logger)
		if err != nil {
			driver.Close()
			return nil, err
		}

		tracker, err := wiring.NewTracker(c.settings, c.logger)
		if err != nil {
			driver.Close()
			return nil, err
		}

		opts.Client = client
		opts.Model = model
		opts.Tracker = tracker
	}

	c.logger.Debug("memory store ready",
		"provider", c.settings.MemoryProvider,
		"reconcile", opts.Client != nil,
	)

	return wiring.NewMemory(opts)
}

// serveHTTP serves handler on listener until ctx is done, then shuts the
// server down gracefully.
func serveHTTP(ctx context.Context, listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
