package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for paperdex resources.
const uriScheme = "paperdex://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index/info",
		Name:        "index-info",
		Description: "Embedding model, metric, dimensions and record counts of the paper index",
		MIMEType:    "application/json",
	}, s.handleIndexInfoResource)
}

// handleIndexInfoResource describes the configured index.
func (s *Server) handleIndexInfoResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info, err := s.ports.Index.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("describing index: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling index info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
