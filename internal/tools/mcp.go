package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools exposes every tool of the registry on an MCP server.
func RegisterMCPTools(s *mcpserver.MCPServer, r *Registry) {
	for _, tool := range r.Tools() {
		s.AddTool(tool, r.mcpHandler(tool.Name))
	}
}

func (r *Registry) mcpHandler(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := r.Dispatch(ctx, name, "", raw)
		if res.IsError() {
			return mcp.NewToolResultError(res.JSON()), nil
		}
		return mcp.NewToolResultText(res.JSON()), nil
	}
}
