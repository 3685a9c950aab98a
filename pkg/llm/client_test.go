package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const chatCompletionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o",
  "choices": [{
    "index": 0,
    "message": {"role": "assistant", "content": "{\"sqlQuery\": \"SELECT 1 FROM DUMMY\", \"visualizationType\": \"table\", \"summary\": \"One row.\"}"},
    "finish_reason": "stop"
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
}`

func TestClient_GenerateResponse(t *testing.T) {
	var (
		receivedPath      string
		receivedRequestID string
		receivedBody      map[string]any
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedRequestID = r.Header.Get(requestIDHeader)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody))
	}))
	defer server.Close()

	client, err := NewClient(&Config{
		Endpoint:  server.URL + "/v1/",
		Model:     "gpt-4o",
		APIKey:    "test-key",
		MaxTokens: 500,
	}, zap.NewNop())
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "req-123")
	content, err := client.GenerateResponse(ctx, "Question: top customers", "You are a SQL assistant", 0.3)
	require.NoError(t, err)

	assert.Contains(t, content, "SELECT 1 FROM DUMMY")
	assert.Equal(t, "/v1/chat/completions", receivedPath)
	assert.Equal(t, "req-123", receivedRequestID)
	assert.Equal(t, "gpt-4o", receivedBody["model"])

	format, ok := receivedBody["response_format"].(map[string]any)
	require.True(t, ok, "response_format should be sent")
	assert.Equal(t, "json_object", format["type"])

	messages, ok := receivedBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestClient_GenerateResponse_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL + "/v1", Model: "gpt-4o", APIKey: "bad"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), "q", "s", 0)
	require.Error(t, err)

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrorTypeAuth, llmErr.Type)
	assert.Equal(t, "gpt-4o", llmErr.Model)
}

func TestClient_GenerateResponse_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "gpt-4o"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), "q", "s", 0)
	assert.Equal(t, ErrorTypeEmpty, GetErrorType(err))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(&Config{}, zap.NewNop())
	assert.Error(t, err)

	client, err := NewClient(&Config{Model: "gpt-4o"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIEndpoint, client.GetEndpoint())
	assert.Equal(t, ProviderOpenAI, client.GetProvider())
}

func TestAnthropicClient_GenerateResponse(t *testing.T) {
	var (
		receivedPath   string
		receivedAPIKey string
		receivedBody   map[string]any
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedAPIKey = r.Header.Get("X-Api-Key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "content": [{"type": "text", "text": "{\"sqlQuery\": \"SELECT 2 FROM DUMMY\"}"}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 4}
}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(&Config{
		Provider: ProviderAnthropic,
		Endpoint: server.URL + "/v1",
		Model:    "claude-sonnet-4-5",
		APIKey:   "anthropic-key",
	}, zap.NewNop())
	require.NoError(t, err)

	content, err := client.GenerateResponse(context.Background(), "Question: x", "system prompt", 0.2)
	require.NoError(t, err)

	assert.Equal(t, `{"sqlQuery": "SELECT 2 FROM DUMMY"}`, content)
	assert.Equal(t, "/v1/messages", receivedPath)
	assert.Equal(t, "anthropic-key", receivedAPIKey)
	assert.Equal(t, "system prompt", receivedBody["system"])
	assert.EqualValues(t, defaultAnthropicMaxTokens, receivedBody["max_tokens"])
}

func TestAnthropicClient_GenerateResponse_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(&Config{Endpoint: server.URL + "/v1", Model: "claude", APIKey: "bad"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), "q", "s", 0)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeAuth, GetErrorType(err))
}

func TestNewAnthropicClient_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicClient(&Config{Model: "claude"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewClientFromConfig(t *testing.T) {
	tests := []struct {
		name         string
		cfg          *Config
		wantProvider string
		wantErr      bool
	}{
		{name: "default provider", cfg: &Config{Model: "gpt-4o"}, wantProvider: ProviderOpenAI},
		{name: "openai", cfg: &Config{Provider: ProviderOpenAI, Model: "gpt-4o"}, wantProvider: ProviderOpenAI},
		{name: "anthropic", cfg: &Config{Provider: ProviderAnthropic, Model: "claude", APIKey: "k"}, wantProvider: ProviderAnthropic},
		{name: "gemini", cfg: &Config{Provider: ProviderGemini, Model: "gemini-2.0-flash", APIKey: "k"}, wantProvider: ProviderGemini},
		{name: "gemini without key", cfg: &Config{Provider: ProviderGemini, Model: "gemini-2.0-flash"}, wantErr: true},
		{name: "unknown", cfg: &Config{Provider: "bedrock", Model: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClientFromConfig(context.Background(), tt.cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, client.GetProvider())
		})
	}
}

func TestContextAwareTransport_NoHeaderWithoutRequestID(t *testing.T) {
	var headerPresent bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, headerPresent = r.Header[requestIDHeader]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: &contextAwareTransport{base: http.DefaultTransport}}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.False(t, headerPresent)
}

func TestWithRequestID_EmptyIsIgnored(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	_, ok := RequestIDFromContext(ctx)
	assert.False(t, ok)
}
