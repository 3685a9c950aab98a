package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/mcp/tools"
	"github.com/ekaya-inc/b1-query-assistant/pkg/services"
)

// ServerName is advertised in the MCP initialize response.
const ServerName = "b1-query-assistant"

const instructions = "Use query_sap_b1 to answer business questions about SAP Business One data. " +
	"It returns read-only SQL, a suggested visualization and a short summary, " +
	"and can optionally run the query."

// Server wraps the mcp-go MCPServer.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates a new MCP server instance with no tools registered.
func NewServer(version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)

	return &Server{
		mcp:    mcpServer,
		logger: logger.Named("mcp"),
	}
}

// NewQueryServer creates an MCP server exposing the query and health tools.
func NewQueryServer(version string, queryService services.QueryService, logger *zap.Logger) *Server {
	s := NewServer(version, logger)
	tools.RegisterQueryTool(s.mcp, queryService, s.logger)
	tools.RegisterHealthTool(s.mcp, version, queryService.ExecutionEnabled())
	s.logger.Debug("MCP tools registered", zap.Strings("tools", []string{tools.QueryToolName, "health"}))
	return s
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}
