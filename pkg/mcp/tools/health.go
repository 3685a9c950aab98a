package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type healthResult struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	ExecutionEnabled bool   `json:"execution_enabled"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool reports the server version and whether query execution is available.
func RegisterHealthTool(s *server.MCPServer, version string, executionEnabled bool) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and whether query execution is available"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := json.Marshal(healthResult{Status: "ok", Version: version, ExecutionEnabled: executionEnabled})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
