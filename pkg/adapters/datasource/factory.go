package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewQueryExecutor creates an executor for cfg.Type from the registry.
func NewQueryExecutor(ctx context.Context, cfg *ConnectionConfig, logger *zap.Logger) (QueryExecutor, error) {
	factory := GetQueryExecutorFactory(cfg.Type)
	if factory == nil {
		return nil, fmt.Errorf("unsupported datasource type: %s", cfg.Type)
	}
	return factory(ctx, cfg, logger)
}
