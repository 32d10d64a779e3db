package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/specialist/pkg/memory"
)

var (
	memorySearchToolName    = "memory_search"
	memorySearchDescription = "Search stored facts about the user. Matches facts containing the query text, ignoring case. Optionally scoped to one session via owner_id."

	memoryListToolName    = "memory_list"
	memoryListDescription = "List stored facts about the user in the order they were learned, optionally scoped to one session via owner_id."

	memoryAddToolName    = "memory_add"
	memoryAddDescription = "Store new facts about the user for a session. Facts are reconciled against what is already known: new facts are added, changed facts update existing ones and contradicted facts are removed."
)

// MemorySearchInput represents the input arguments for the MCP memory_search tool.
type MemorySearchInput struct {
	Query   string `json:"query" jsonschema:"the text to look for in stored facts"`
	OwnerID string `json:"owner_id,omitempty" jsonschema:"optional session id to scope the search to"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of facts to return (default 5)"`
}

// MemoryListInput represents the input arguments for the MCP memory_list tool.
type MemoryListInput struct {
	OwnerID string `json:"owner_id,omitempty" jsonschema:"optional session id to list facts for"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of facts to return (default 100)"`
}

// MemoryAddInput represents the input arguments for the MCP memory_add tool.
type MemoryAddInput struct {
	Facts   []string `json:"facts" jsonschema:"short factual statements about the user"`
	OwnerID string   `json:"owner_id" jsonschema:"the session id the facts belong to"`
}

// MemoriesOutput is the structured output of memory_search and memory_list.
type MemoriesOutput struct {
	Memories []memory.Record `json:"memories"`
}

// MemoryAddOutput is the structured output of memory_add.
type MemoryAddOutput struct {
	Operations []memory.Operation `json:"operations"`
}

func (s *Server) handleMemorySearch(ctx context.Context, _ *mcp.CallToolRequest, input MemorySearchInput) (*mcp.CallToolResult, MemoriesOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), MemoriesOutput{}, nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = memory.DefaultSearchLimit
	}

	records, err := s.config.Reader.Search(ctx, input.Query, input.OwnerID, limit)
	if err != nil {
		s.config.Logger.Error("memory search failed", "query", input.Query, "error", err)
		return errorResult(fmt.Sprintf("Memory search failed: %v", err)), MemoriesOutput{}, nil
	}
	return jsonResult(MemoriesOutput{Memories: nonNil(records)})
}

func (s *Server) handleMemoryList(ctx context.Context, _ *mcp.CallToolRequest, input MemoryListInput) (*mcp.CallToolResult, MemoriesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = memory.DefaultListLimit
	}

	records, err := s.config.Reader.GetAll(ctx, input.OwnerID, limit)
	if err != nil {
		s.config.Logger.Error("memory list failed", "owner", input.OwnerID, "error", err)
		return errorResult(fmt.Sprintf("Memory list failed: %v", err)), MemoriesOutput{}, nil
	}
	return jsonResult(MemoriesOutput{Memories: nonNil(records)})
}

func (s *Server) handleMemoryAdd(ctx context.Context, _ *mcp.CallToolRequest, input MemoryAddInput) (*mcp.CallToolResult, MemoryAddOutput, error) {
	if input.OwnerID == "" {
		return errorResult("owner_id is required"), MemoryAddOutput{}, nil
	}

	facts := make([]string, 0, len(input.Facts))
	for _, f := range input.Facts {
		if f = strings.TrimSpace(f); f != "" {
			facts = append(facts, f)
		}
	}
	if len(facts) == 0 {
		return errorResult("at least one fact is required"), MemoryAddOutput{}, nil
	}

	ops, err := s.config.Writer.AddFacts(ctx, facts, input.OwnerID)
	if err != nil {
		s.config.Logger.Error("memory add failed", "owner", input.OwnerID, "error", err)
		return errorResult(fmt.Sprintf("Memory add failed: %v", err)), MemoryAddOutput{}, nil
	}
	if ops == nil {
		ops = []memory.Operation{}
	}

	s.config.Logger.Info("memory updated over mcp", "owner", input.OwnerID, "operations", len(ops))
	return jsonResult(MemoryAddOutput{Operations: ops})
}

func jsonResult[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

func nonNil(records []memory.Record) []memory.Record {
	if records == nil {
		return []memory.Record{}
	}
	return records
}
