package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
)

type toolCallResponse struct {
	Result struct {
		Content []mcp.TextContent `json:"content"`
		IsError bool              `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type toolListResponse struct {
	Result struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	} `json:"result"`
}

func newTestMCPServer() *server.MCPServer {
	return server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
}

// callTool sends a tools/call request through the server's JSON-RPC handler.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolCallResponse {
	t.Helper()
	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	req, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": "tools/call", "params": params})
	require.NoError(t, err)

	raw, err := json.Marshal(s.HandleMessage(context.Background(), req))
	require.NoError(t, err)

	var resp toolCallResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func listTools(t *testing.T, s *server.MCPServer) toolListResponse {
	t.Helper()
	raw, err := json.Marshal(s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var resp toolListResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}
