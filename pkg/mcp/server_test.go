package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/llm"
	"github.com/ekaya-inc/b1-query-assistant/pkg/prompts"
	"github.com/ekaya-inc/b1-query-assistant/pkg/services"
)

func newTestQueryService(t *testing.T) services.QueryService {
	t.Helper()
	sc, err := prompts.DefaultSchemaContext()
	require.NoError(t, err)
	return services.NewQueryService(
		llm.NewMockLLMClientWithResponse(`{"sqlQuery": "SELECT 1 FROM DUMMY"}`),
		prompts.NewQueryPromptBuilder(sc, nil, ""),
		services.NewResponseValidator(nil, ""),
		nil,
		services.QueryServiceConfig{MaxRows: 10},
		zap.NewNop(),
	)
}

func toolNames(t *testing.T, s *Server) []string {
	t.Helper()
	raw, err := json.Marshal(s.MCP().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))

	names := make([]string, 0, len(resp.Result.Tools))
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestNewServer(t *testing.T) {
	s := NewServer("1.0.0", nil)
	require.NotNil(t, s)
	require.NotNil(t, s.MCP())
	assert.Same(t, s.mcp, s.MCP())
	assert.Empty(t, toolNames(t, s))
}

func TestNewQueryServer_RegistersTools(t *testing.T) {
	s := NewQueryServer("1.0.0", newTestQueryService(t), zap.NewNop())
	assert.ElementsMatch(t, []string{"query_sap_b1", "health"}, toolNames(t, s))
}

func TestServer_Initialize(t *testing.T) {
	s := NewServer("2.3.4", zap.NewNop())

	req := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	raw, err := json.Marshal(s.MCP().HandleMessage(context.Background(), []byte(req)))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			ServerInfo struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
			Instructions string `json:"instructions"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, ServerName, resp.Result.ServerInfo.Name)
	assert.Equal(t, "2.3.4", resp.Result.ServerInfo.Version)
	assert.Contains(t, resp.Result.Instructions, "query_sap_b1")
}

func TestServer_RegisterTool(t *testing.T) {
	s := NewServer("1.0.0", zap.NewNop())

	handlerCalled := false
	s.RegisterTool(mcp.NewTool("test-tool", mcp.WithDescription("A test tool")),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			handlerCalled = true
			return mcp.NewToolResultText("success"), nil
		})

	assert.False(t, handlerCalled, "handler should not be called during registration")
	assert.Equal(t, []string{"test-tool"}, toolNames(t, s))
}

func TestServer_NewStreamableHTTPServer(t *testing.T) {
	s := NewServer("1.0.0", zap.NewNop())
	assert.NotNil(t, s.NewStreamableHTTPServer())
}
