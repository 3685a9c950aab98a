package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient provides access to the Google Gemini API.
type GeminiClient struct {
	client    *genai.Client
	endpoint  string
	model     string
	maxTokens int
	logger    *zap.Logger
}

// geminiKeyHeader carries the API key on Gemini REST calls.
const geminiKeyHeader = "x-goog-api-key"

// geminiKeyTransport sets the API key header. A custom HTTP client replaces
// the SDK's own key transport, so the key has to be added here.
type geminiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *geminiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set(geminiKeyHeader, t.key)
	return base.RoundTrip(req)
}

// newGeminiHTTPClient builds the HTTP client used for Gemini calls. It forwards
// the request id like the other providers and authenticates with the key.
func newGeminiHTTPClient(apiKey string, timeoutSeconds int) *http.Client {
	client := newHTTPClient(timeoutSeconds)
	client.Transport = &contextAwareTransport{
		base: &geminiKeyTransport{key: apiKey, base: http.DefaultTransport},
	}
	return client
}

// NewGeminiClient creates a new Gemini LLM client.
func NewGeminiClient(ctx context.Context, cfg *Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required for gemini")
	}

	// The key option still authenticates the SDK's non-HTTP cache client.
	opts := []option.ClientOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(newGeminiHTTPClient(cfg.APIKey, cfg.TimeoutSeconds)),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimSuffix(cfg.Endpoint, "/")))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("llm"),
	}, nil
}

// GenerateResponse sends the prompt with the system instruction and returns the first candidate's text.
// JSON output is requested through the response MIME type.
func (c *GeminiClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(float32(temperature))
	if c.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.maxTokens))
	}
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemMessage)}}

	c.logger.Debug("LLM request",
		zap.String("provider", ProviderGemini),
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		llmErr := ClassifyError(err)
		llmErr.Model = c.model
		llmErr.Endpoint = c.endpoint
		return "", llmErr
	}

	text := extractGeminiText(resp)
	if text == "" {
		return "", &Error{Type: ErrorTypeEmpty, Message: "no text content in response", Model: c.model, Endpoint: c.endpoint}
	}

	fields := []zap.Field{zap.Duration("elapsed", time.Since(start))}
	if resp.UsageMetadata != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount))
	}
	c.logger.Info("LLM request completed", fields...)

	return text, nil
}

// GetModel returns the configured model name.
func (c *GeminiClient) GetModel() string {
	return c.model
}

// GetProvider returns "gemini".
func (c *GeminiClient) GetProvider() string {
	return ProviderGemini
}

// Close releases the underlying API connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
