package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/services"
)

// QueryToolName is the MCP name of the natural-language query tool.
const QueryToolName = "query_sap_b1"

// RegisterQueryTool adds the natural-language query tool to the MCP server.
// The tool returns the result bundle as JSON text.
func RegisterQueryTool(s *server.MCPServer, queryService services.QueryService, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("mcp-query-tool")

	description := "Translate a business question about SAP Business One data (customers, invoices, " +
		"orders, items, journal entries) into a read-only SQL query. Returns the SQL, a suggested " +
		"visualization and a short summary."
	if queryService.ExecutionEnabled() {
		description += " Set execute_query to also run the query and return the rows."
	}

	tool := mcp.NewTool(
		QueryToolName,
		mcp.WithDescription(description),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The business question in plain language, e.g. 'Top 10 customers by open balance'"),
		),
		mcp.WithBoolean(
			"execute_query",
			mcp.Description("Run the generated SQL and include the rows (default: false)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return NewErrorResult(ErrCodeInvalidParameters, "parameter 'question' is required"), nil
		}
		question = strings.TrimSpace(question)
		if question == "" {
			return NewErrorResult(ErrCodeInvalidParameters, "parameter 'question' cannot be empty"), nil
		}

		executeQuery := req.GetBool("execute_query", false)

		bundle, err := queryService.ProcessQuery(ctx, question, executeQuery)
		if err != nil {
			if code := errorCode(err); code != "" {
				logger.Info("Query tool generation failed", zap.String("code", code), zap.Error(err))
				return NewErrorResult(code, err.Error()), nil
			}
			return nil, fmt.Errorf("query tool failed: %w", err)
		}

		body, err := json.Marshal(bundle)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result bundle: %w", err)
		}
		return mcp.NewToolResultText(string(body)), nil
	})
}
