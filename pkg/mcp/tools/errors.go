package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/b1-query-assistant/pkg/apperrors"
)

// Error codes used in tool error results.
const (
	ErrCodeInvalidParameters    = "invalid_parameters"
	ErrCodeModelUnavailable     = "model_unavailable"
	ErrCodeMalformedModelOutput = "malformed_model_output"
)

// ErrorResponse represents a structured error in tool results.
// It is returned as tool content so the calling agent can read the
// failure instead of receiving a protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use it for failures the caller can act on, such as a blank question
// or a model answer that could not be used.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	})
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// errorCode maps an orchestrator error to a tool error code.
// The empty string means the error is not a known generation failure.
func errorCode(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidRequest):
		return ErrCodeInvalidParameters
	case errors.Is(err, apperrors.ErrModelUnavailable):
		return ErrCodeModelUnavailable
	case errors.Is(err, apperrors.ErrMalformedModelOutput):
		return ErrCodeMalformedModelOutput
	}
	return ""
}
