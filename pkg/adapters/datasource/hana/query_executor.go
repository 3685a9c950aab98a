package hana

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/SAP/go-hdb/driver" // registers the "hdb" driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
	"github.com/ekaya-inc/b1-query-assistant/pkg/logging"
)

const driverName = "hdb"

// NewQueryExecutor opens a HANA pool. No connection is made until the first query,
// so the service starts even when the database is unreachable.
func NewQueryExecutor(ctx context.Context, cfg *Config, logger *zap.Logger) (*datasource.SQLQueryExecutor, error) {
	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open hana connection: %s", logging.SanitizeError(err))
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if logger != nil {
		logger.Info("HANA datasource configured",
			zap.String("dsn", logging.SanitizeConnectionString(cfg.DSN())),
			zap.String("schema", cfg.Schema))
	}

	return datasource.NewSQLQueryExecutor(db, "hana", cfg.QueryTimeout, logger), nil
}
