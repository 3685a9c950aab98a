package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Description: "PostgreSQL replica or export of the Business One company database",
			DefaultPort: DefaultPort(),
		},
		QueryExecutorFactory: func(ctx context.Context, cc *datasource.ConnectionConfig, logger *zap.Logger) (datasource.QueryExecutor, error) {
			cfg, err := FromConnectionConfig(cc)
			if err != nil {
				return nil, err
			}
			return NewQueryExecutor(ctx, cfg, logger)
		},
	})
}
