package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultConfigFile is read when present; environment variables always override it.
const DefaultConfigFile = "config.yaml"

// Config holds all configuration for the query assistant.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, database password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr               string   `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port                   string   `yaml:"port" env:"PORT" env-default:"8000"`
	Env                    string   `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel               string   `yaml:"log_level" env:"LOG_LEVEL" env-default:""`
	CORSAllowedOrigins     []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds" env:"SHUTDOWN_TIMEOUT_SECONDS" env-default:"30"`
	Version                string   `yaml:"-"` // Set at load time, not from config

	// Language model provider
	LLM LLMConfig `yaml:"llm"`

	// Target database (SAP HANA by default)
	Datasource DatasourceConfig `yaml:"datasource"`

	// Prompt and response-shape configuration
	Prompt PromptConfig `yaml:"prompt"`

	// MCP endpoint
	MCP MCPConfig `yaml:"mcp"`
}

// LLMConfig selects and configures the language model provider.
type LLMConfig struct {
	Provider        string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL         string  `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	Model           string  `yaml:"model" env:"LLM_MODEL" env-default:""` // Defaulted per provider when empty
	APIKey          string  `yaml:"-" env:"LLM_API_KEY"`                  // Falls back to the provider's own key variable
	OpenAIAPIKey    string  `yaml:"-" env:"OPENAI_API_KEY"`
	AnthropicAPIKey string  `yaml:"-" env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string  `yaml:"-" env:"GEMINI_API_KEY"`
	Temperature     float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.3"`
	MaxTokens       int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"1000"`
	TimeoutSeconds  int     `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`
}

// DatasourceConfig holds connection settings for the database the generated SQL runs against.
type DatasourceConfig struct {
	Type                string `yaml:"type" env:"DATASOURCE_TYPE" env-default:"hana"`
	Host                string `yaml:"host" env:"DATASOURCE_HOST,SAP_HANA_HOST" env-default:""`
	Port                int    `yaml:"port" env:"DATASOURCE_PORT,SAP_HANA_PORT"` // 0 selects the adapter default (39015 for HANA)
	User                string `yaml:"user" env:"DATASOURCE_USER,SAP_HANA_USER" env-default:""`
	Password            string `yaml:"-" env:"DATASOURCE_PASSWORD,SAP_HANA_PASSWORD"` // Secret - not in YAML
	Database            string `yaml:"database" env:"DATASOURCE_DATABASE,SAP_HANA_DATABASE" env-default:""`
	Schema              string `yaml:"schema" env:"SAP_B1_SCHEMA" env-default:"SBODEMOUS"`
	Encrypt             bool   `yaml:"encrypt" env:"DATASOURCE_ENCRYPT" env-default:"false"`
	QueryTimeoutSeconds int    `yaml:"query_timeout_seconds" env:"DATASOURCE_QUERY_TIMEOUT_SECONDS" env-default:"30"`
	MaxRows             int    `yaml:"max_rows" env:"DATASOURCE_MAX_ROWS" env-default:"1000"`
	MaxOpenConns        int    `yaml:"max_open_conns" env:"DATASOURCE_MAX_OPEN_CONNS" env-default:"5"`
}

// PromptConfig controls prompt context and the accepted visualization values.
type PromptConfig struct {
	// SchemaContextPath points to a YAML schema context; empty uses the embedded SAP B1 context.
	SchemaContextPath    string   `yaml:"schema_context_path" env:"PROMPT_SCHEMA_CONTEXT_PATH" env-default:""`
	VisualizationTypes   []string `yaml:"visualization_types" env:"VISUALIZATION_TYPES" env-default:"table,bar_chart,line_chart,pie_chart"`
	DefaultVisualization string   `yaml:"default_visualization" env:"DEFAULT_VISUALIZATION" env-default:"table"`
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// IsConfigured reports whether enough connection details exist to execute queries.
func (d *DatasourceConfig) IsConfigured() bool {
	return d.Host != ""
}

// Load reads config.yaml (if present) with environment variable overrides.
// A .env file in the working directory is loaded first when present.
func Load(version string) (*Config, error) {
	return LoadFromFile(DefaultConfigFile, version)
}

// LoadFromFile is Load with an explicit YAML path. A missing file is not an error
// when it is the default path; an explicitly named file must exist.
func LoadFromFile(path, version string) (*Config, error) {
	// Variables already set in the environment win over .env values.
	_ = godotenv.Load()

	cfg := &Config{Version: version}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist) && path == DefaultConfigFile:
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("config file %s: %w", path, statErr)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills values that depend on other fields.
func (c *Config) applyDefaults() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = c.LLM.OpenAIAPIKey
		case "anthropic":
			c.LLM.APIKey = c.LLM.AnthropicAPIKey
		case "gemini":
			c.LLM.APIKey = c.LLM.GeminiAPIKey
		}
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "anthropic":
			c.LLM.Model = "claude-sonnet-4-5"
		case "gemini":
			c.LLM.Model = "gemini-2.0-flash"
		default:
			c.LLM.Model = "gpt-4o"
		}
	}

	c.Datasource.Type = strings.ToLower(strings.TrimSpace(c.Datasource.Type))
	c.Datasource.Host = ResolveHostForDocker(c.Datasource.Host)

	types := make([]string, 0, len(c.Prompt.VisualizationTypes))
	for _, t := range c.Prompt.VisualizationTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	c.Prompt.VisualizationTypes = types
	c.Prompt.DefaultVisualization = strings.ToLower(strings.TrimSpace(c.Prompt.DefaultVisualization))
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %q", c.Port)
	}

	switch c.LLM.Provider {
	case "openai":
		// Local OpenAI-compatible endpoints (vLLM, Ollama) may run without a key.
		if c.LLM.APIKey == "" && (c.LLM.BaseURL == "" || strings.Contains(c.LLM.BaseURL, "api.openai.com")) {
			return fmt.Errorf("OPENAI_API_KEY (or LLM_API_KEY) is required for the OpenAI API")
		}
	case "anthropic":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY (or LLM_API_KEY) is required for the Anthropic API")
		}
	case "gemini":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY (or LLM_API_KEY) is required for the Gemini API")
		}
	default:
		return fmt.Errorf("unsupported llm provider: %q (must be openai, anthropic or gemini)", c.LLM.Provider)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}

	if len(c.Prompt.VisualizationTypes) == 0 {
		return fmt.Errorf("at least one visualization type is required")
	}
	if !slices.Contains(c.Prompt.VisualizationTypes, c.Prompt.DefaultVisualization) {
		return fmt.Errorf("default visualization %q is not in visualization types %v",
			c.Prompt.DefaultVisualization, c.Prompt.VisualizationTypes)
	}

	if c.Datasource.Type == "" {
		return fmt.Errorf("datasource type is required")
	}
	if c.Datasource.MaxRows <= 0 {
		return fmt.Errorf("datasource max rows must be positive, got %d", c.Datasource.MaxRows)
	}
	if c.Datasource.Port < 0 || c.Datasource.Port > 65535 {
		return fmt.Errorf("invalid datasource port: %d", c.Datasource.Port)
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}
