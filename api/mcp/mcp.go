// Package mcp serves the fact store over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/specialist/pkg/memory"
	"github.com/papercomputeco/specialist/pkg/utils"
)

// Reader is the read side of the fact store.
type Reader interface {
	Search(ctx context.Context, query, ownerID string, limit int) ([]memory.Record, error)
	GetAll(ctx context.Context, ownerID string, limit int) ([]memory.Record, error)
}

// Writer reconciles new facts into an owner's records. In the server this
// is a per-session queue, since tool calls arrive concurrently.
type Writer interface {
	AddFacts(ctx context.Context, facts []string, ownerID string) ([]memory.Operation, error)
}

type Config struct {
	// Reader answers memory_search and memory_list.
	Reader Reader

	// Writer backs memory_add. Without it the tool is not offered.
	Writer Writer

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "specialist",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Reader == nil {
			return nil, errors.New("memory reader is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        memorySearchToolName,
			Description: memorySearchDescription,
		}, s.handleMemorySearch)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        memoryListToolName,
			Description: memoryListDescription,
		}, s.handleMemoryList)

		if c.Writer != nil {
			mcp.AddTool(mcpServer, &mcp.Tool{
				Name:        memoryAddToolName,
				Description: memoryAddDescription,
			}, s.handleMemoryAdd)
		}
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeStdio serves a single client over stdin and stdout until ctx is done
// or the client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
