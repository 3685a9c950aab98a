package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource/hana"
	_ "github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource/postgres"
	"github.com/ekaya-inc/b1-query-assistant/pkg/config"
	"github.com/ekaya-inc/b1-query-assistant/pkg/llm"
	"github.com/ekaya-inc/b1-query-assistant/pkg/logging"
	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
	"github.com/ekaya-inc/b1-query-assistant/pkg/prompts"
	"github.com/ekaya-inc/b1-query-assistant/pkg/services"
)

// application holds the collaborators built from configuration at start-up.
type application struct {
	cfg          *config.Config
	logger       *zap.Logger
	llmClient    llm.LLMClient
	executor     datasource.QueryExecutor // nil when no datasource is configured
	queryService services.QueryService
}

func loadConfig() (*config.Config, error) {
	if configPath == "" || configPath == config.DefaultConfigFile {
		return config.Load(Version)
	}
	return config.LoadFromFile(configPath, Version)
}

// newLLMClient is replaced in tests.
var newLLMClient = llm.NewClientFromConfig

// newApplication wires the query pipeline. The database is not contacted here,
// so the service starts even when the datasource is unreachable.
func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	llmClient, err := newLLMClient(ctx, &llm.Config{
		Provider:       cfg.LLM.Provider,
		Endpoint:       cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		APIKey:         cfg.LLM.APIKey,
		MaxTokens:      cfg.LLM.MaxTokens,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	schemaCtx, err := prompts.LoadSchemaContext(cfg.Prompt.SchemaContextPath)
	if err != nil {
		closeLLMClient(llmClient, logger)
		return nil, err
	}
	schemaCtx = schemaCtx.WithSchema(cfg.Datasource.Schema)

	if cfg.Datasource.IsConfigured() && cfg.Datasource.Type != "hana" && cfg.Prompt.SchemaContextPath == "" {
		logger.Warn("Embedded schema context targets SAP HANA; set PROMPT_SCHEMA_CONTEXT_PATH for this datasource",
			zap.String("datasource", cfg.Datasource.Type))
	}

	vizTypes := visualizationTypes(cfg.Prompt.VisualizationTypes)
	defaultViz := models.VisualizationType(cfg.Prompt.DefaultVisualization)

	executor, err := newExecutor(ctx, cfg, logger)
	if err != nil {
		closeLLMClient(llmClient, logger)
		return nil, err
	}

	queryService := services.NewQueryService(
		llmClient,
		prompts.NewQueryPromptBuilder(schemaCtx, vizTypes, defaultViz),
		services.NewResponseValidator(vizTypes, defaultViz),
		executor,
		services.QueryServiceConfig{
			Temperature:    cfg.LLM.Temperature,
			MaxRows:        cfg.Datasource.MaxRows,
			DatasourceType: cfg.Datasource.Type,
		},
		logger,
	)

	logger.Info("Query assistant configured",
		zap.String("llm_provider", llmClient.GetProvider()),
		zap.String("llm_model", llmClient.GetModel()),
		zap.String("dialect", schemaCtx.Dialect),
		zap.String("schema", schemaCtx.Schema),
		zap.Bool("execution_enabled", executor != nil))

	return &application{
		cfg:          cfg,
		logger:       logger,
		llmClient:    llmClient,
		executor:     executor,
		queryService: queryService,
	}, nil
}

// newExecutor returns a nil executor when no datasource host is configured.
func newExecutor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datasource.QueryExecutor, error) {
	if !cfg.Datasource.IsConfigured() {
		logger.Info("No datasource configured; query execution is disabled")
		return nil, nil
	}

	executor, err := datasource.NewQueryExecutor(ctx, &datasource.ConnectionConfig{
		Type:         cfg.Datasource.Type,
		Host:         cfg.Datasource.Host,
		Port:         cfg.Datasource.Port,
		User:         cfg.Datasource.User,
		Password:     cfg.Datasource.Password,
		Database:     cfg.Datasource.Database,
		Schema:       cfg.Datasource.Schema,
		Encrypt:      cfg.Datasource.Encrypt,
		MaxOpenConns: cfg.Datasource.MaxOpenConns,
		QueryTimeout: time.Duration(cfg.Datasource.QueryTimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create %s executor: %w", cfg.Datasource.Type, err)
	}
	return executor, nil
}

func visualizationTypes(names []string) []models.VisualizationType {
	types := make([]models.VisualizationType, 0, len(names))
	for _, name := range names {
		types = append(types, models.VisualizationType(strings.TrimSpace(name)))
	}
	return types
}

// checkDatasource pings the datasource once. Failures are logged only;
// each execution request reports its own error.
func (a *application) checkDatasource(ctx context.Context) {
	tester, ok := a.executor.(datasource.ConnectionTester)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tester.TestConnection(ctx); err != nil {
		a.logger.Warn("Datasource is not reachable; execution requests will fail until it is",
			zap.String("datasource", a.cfg.Datasource.Type),
			zap.String("error", logging.SanitizeError(err)))
		return
	}
	a.logger.Info("Datasource connection verified", zap.String("datasource", a.cfg.Datasource.Type))
}

// Close releases the datasource pool and any connection held by the LLM client.
func (a *application) Close() {
	closeLLMClient(a.llmClient, a.logger)
	if a.executor == nil {
		return
	}
	if err := a.executor.Close(); err != nil {
		a.logger.Warn("Failed to close datasource", zap.Error(err))
	}
}

// closeLLMClient releases clients that hold connections, such as Gemini.
func closeLLMClient(client llm.LLMClient, logger *zap.Logger) {
	closer, ok := client.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("Failed to close llm client", zap.Error(err))
	}
}
