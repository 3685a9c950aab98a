package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
	"github.com/ekaya-inc/b1-query-assistant/pkg/logging"
)

// NewQueryExecutor opens a SQL Server pool without connecting.
func NewQueryExecutor(ctx context.Context, cfg *Config, logger *zap.Logger) (*datasource.SQLQueryExecutor, error) {
	db, err := sql.Open("sqlserver", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open SQL auth connection: %s", logging.SanitizeError(err))
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if logger != nil {
		logger.Info("SQL Server datasource configured",
			zap.String("dsn", logging.SanitizeConnectionString(cfg.ConnectionString())))
	}

	return datasource.NewSQLQueryExecutor(db, "mssql", cfg.QueryTimeout, logger), nil
}
