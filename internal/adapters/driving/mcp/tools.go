package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// DefaultK is the result count when a tool call does not set one.
const DefaultK = 5

// SearchInput is the input schema for the search_papers tool.
type SearchInput struct {
	Query     string `json:"query" jsonschema:"the text to search the paper index for"`
	K         int    `json:"k,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	MaxPerDoc int    `json:"max_per_doc,omitempty" jsonschema:"maximum chunks per paper in the results, 0 keeps every chunk"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_papers",
		Description: "Search the indexed papers for passages matching a query",
	}, s.handleSearchPapers)
}

// handleSearchPapers handles the search_papers tool invocation. The
// output is the standard result envelope: query, count, ranked results
// and a snapshot of the index they came from.
func (s *Server) handleSearchPapers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, domain.SearchContext, error) {
	k := input.K
	if k <= 0 {
		k = DefaultK
	}

	opts := domain.SearchOptions{
		K:              k,
		MaxPerDocument: input.MaxPerDoc,
	}
	sc, err := s.ports.Search.SearchContext(ctx, input.Query, opts)
	if err != nil {
		return nil, domain.SearchContext{}, err
	}

	return nil, sc, nil
}
