package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
	"github.com/ekaya-inc/b1-query-assistant/pkg/apperrors"
	"github.com/ekaya-inc/b1-query-assistant/pkg/llm"
	"github.com/ekaya-inc/b1-query-assistant/pkg/logging"
	"github.com/ekaya-inc/b1-query-assistant/pkg/metrics"
	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
	"github.com/ekaya-inc/b1-query-assistant/pkg/prompts"
)

// ExecutionErrorPrefix starts every execution error placed in a ResultBundle.
const ExecutionErrorPrefix = "Failed to execute query: "

// QueryService turns a business question into SQL and optionally runs it.
type QueryService interface {
	// ProcessQuery generates SQL for question. When executeQuery is true the SQL
	// is run and the outcome (rows or error) is recorded in the bundle; execution
	// failures never turn into a returned error.
	//
	// Returned errors wrap apperrors.ErrInvalidRequest, ErrModelUnavailable or
	// ErrMalformedModelOutput.
	ProcessQuery(ctx context.Context, question string, executeQuery bool) (*models.ResultBundle, error)

	// ExecutionEnabled reports whether a datasource is configured.
	ExecutionEnabled() bool
}

// QueryServiceConfig holds the tunables of the query pipeline.
type QueryServiceConfig struct {
	Temperature    float64
	MaxRows        int
	DatasourceType string
}

type queryService struct {
	llmClient     llm.LLMClient
	prompts       *prompts.QueryPromptBuilder
	systemMessage string
	validator     ResponseValidator
	executor      datasource.QueryExecutor
	cfg           QueryServiceConfig
	logger        *zap.Logger
}

// NewQueryService wires the pipeline. executor may be nil, in which case
// execution requests are answered with an error inside the bundle.
func NewQueryService(
	llmClient llm.LLMClient,
	promptBuilder *prompts.QueryPromptBuilder,
	validator ResponseValidator,
	executor datasource.QueryExecutor,
	cfg QueryServiceConfig,
	logger *zap.Logger,
) QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DatasourceType == "" {
		cfg.DatasourceType = "none"
	}
	return &queryService{
		llmClient:     llmClient,
		prompts:       promptBuilder,
		systemMessage: promptBuilder.SystemMessage(),
		validator:     validator,
		executor:      executor,
		cfg:           cfg,
		logger:        logger.Named("query-service"),
	}
}

var _ QueryService = (*queryService)(nil)

func (s *queryService) ExecutionEnabled() bool {
	return s.executor != nil
}

func (s *queryService) ProcessQuery(ctx context.Context, question string, executeQuery bool) (*models.ResultBundle, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		metrics.ObserveGeneration(metrics.OutcomeInvalidRequest)
		return nil, fmt.Errorf("%w: query must not be empty", apperrors.ErrInvalidRequest)
	}

	logger := s.logger
	if id, ok := llm.RequestIDFromContext(ctx); ok {
		logger = logger.With(zap.String("request_id", id))
	}

	generated, err := s.generate(ctx, logger, question)
	if err != nil {
		return nil, err
	}

	bundle := models.NewResultBundle(generated)

	if !executeQuery {
		metrics.ObserveExecution(s.cfg.DatasourceType, metrics.ExecutionSkipped)
		return bundle, nil
	}

	s.execute(ctx, logger, bundle, generated.SQLQuery())
	return bundle, nil
}

// generate makes exactly one model call and validates its output.
func (s *queryService) generate(ctx context.Context, logger *zap.Logger, question string) (*models.GeneratedQuery, error) {
	start := time.Now()
	raw, err := s.llmClient.GenerateResponse(ctx, s.prompts.UserPrompt(question), s.systemMessage, s.cfg.Temperature)
	metrics.ObserveLLMDuration(s.llmClient.GetProvider(), s.llmClient.GetModel(), time.Since(start))

	if err != nil {
		classified := llm.ClassifyError(err)
		logger.Error("Language model request failed",
			zap.String("provider", s.llmClient.GetProvider()),
			zap.String("model", s.llmClient.GetModel()),
			zap.String("error_type", string(classified.Type)),
			zap.Int("status_code", classified.StatusCode),
			zap.String("error", logging.SanitizeError(err)))
		metrics.ObserveGeneration(metrics.OutcomeModelUnavailable)
		return nil, fmt.Errorf("%w: %s", apperrors.ErrModelUnavailable, logging.SanitizeError(classified))
	}

	generated, err := s.validator.Validate(raw)
	if err != nil {
		logger.Warn("Model output failed validation",
			zap.Error(err),
			zap.String("output", logging.TruncateString(raw, 500)))
		metrics.ObserveGeneration(metrics.OutcomeMalformedOutput)
		return nil, err
	}

	metrics.ObserveGeneration(metrics.OutcomeSuccess)
	logger.Info("Generated SQL",
		zap.String("visualization", string(generated.VisualizationType())),
		zap.String("sql", logging.SanitizeQuery(generated.SQLQuery())),
		zap.Duration("elapsed", time.Since(start)))

	return generated, nil
}

// execute runs sqlQuery and records rows or an error on the bundle.
func (s *queryService) execute(ctx context.Context, logger *zap.Logger, bundle *models.ResultBundle, sqlQuery string) {
	if s.executor == nil {
		logger.Warn("Execution requested but no datasource is configured")
		metrics.ObserveExecution(s.cfg.DatasourceType, metrics.ExecutionError)
		bundle.SetError(ExecutionErrorPrefix + apperrors.ErrExecutorNotConfigured.Error())
		return
	}

	start := time.Now()
	result, err := s.executor.Query(ctx, sqlQuery, s.cfg.MaxRows)
	elapsed := time.Since(start)

	if err != nil {
		logger.Warn("Query execution failed",
			zap.String("sql", logging.SanitizeQuery(sqlQuery)),
			zap.String("error", logging.SanitizeError(err)),
			zap.Duration("elapsed", elapsed))
		metrics.ObserveExecution(s.cfg.DatasourceType, metrics.ExecutionError)
		metrics.ObserveDBDuration(s.cfg.DatasourceType, elapsed, 0)
		bundle.SetError(ExecutionErrorPrefix + logging.SanitizeError(err))
		return
	}

	metrics.ObserveExecution(s.cfg.DatasourceType, metrics.ExecutionSuccess)
	metrics.ObserveDBDuration(s.cfg.DatasourceType, elapsed, len(result.Rows))

	if result.Truncated {
		logger.Info("Result truncated", zap.Int("max_rows", s.cfg.MaxRows))
	}

	bundle.SetResults(result.Rows)
}
