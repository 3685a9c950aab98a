package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewClientFromConfig creates the LLM client for the configured provider.
// An empty provider selects OpenAI. Clients holding connections also implement io.Closer.
func NewClientFromConfig(ctx context.Context, cfg *Config, logger *zap.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewClient(cfg, logger)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}
