// Package llm provides language model clients used to turn business questions into SQL.
package llm

import (
	"context"
)

// LLMClient defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse sends a system message and a user prompt and returns the raw completion text.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetProvider returns the provider name ("openai", "anthropic", "gemini").
	GetProvider() string
}

// Ensure implementations satisfy LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*GeminiClient)(nil)
)
