package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattyatea/ClickUp-MCP/internal/hierarchy"
)

type workspaceHierarchyInput struct {
	WorkspaceID     string `json:"workspaceId,omitempty" jsonschema:"Restrict the walk to one workspace id; all visible workspaces when empty"`
	IncludeArchived bool   `json:"includeArchived,omitempty" jsonschema:"Include archived spaces, folders and lists"`
}

func (s *server) handleWorkspaceHierarchy(ctx context.Context, req *mcpsdk.CallToolRequest, input workspaceHierarchyInput) (*mcpsdk.CallToolResult, hierarchy.TreeResult, error) {
	token, err := s.resolveToken(ctx, req)
	if err != nil {
		return nil, hierarchy.TreeResult{}, err
	}
	tree, err := s.walker.Walk(ctx, token, input.WorkspaceID, input.IncludeArchived)
	if err != nil {
		return nil, hierarchy.TreeResult{}, err
	}
	return nil, *tree, nil
}
