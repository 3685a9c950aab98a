package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/logging"
	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
)

// SQLQueryExecutor runs queries through database/sql. The HANA and SQL Server
// adapters share it; only the driver and DSN differ.
type SQLQueryExecutor struct {
	db      *sql.DB
	dsType  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSQLQueryExecutor wraps an opened *sql.DB. The executor owns db and closes it on Close.
func NewSQLQueryExecutor(db *sql.DB, dsType string, timeout time.Duration, logger *zap.Logger) *SQLQueryExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLQueryExecutor{
		db:      db,
		dsType:  dsType,
		timeout: timeout,
		logger:  logger.Named("datasource").With(zap.String("type", dsType)),
	}
}

// Query runs sqlQuery on a dedicated pooled connection and returns at most limit rows.
func (e *SQLQueryExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error) {
	limit = EffectiveLimit(limit)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", e.dsType, err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := collectSQLRows(rows, limit)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Query executed",
		zap.String("sql", logging.SanitizeQuery(sqlQuery)),
		zap.Int("rows", result.RowCount),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// TestConnection verifies the database is reachable.
func (e *SQLQueryExecutor) TestConnection(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", e.dsType, err)
	}
	return nil
}

// Close releases the pool.
func (e *SQLQueryExecutor) Close() error {
	return e.db.Close()
}

func collectSQLRows(rows *sql.Rows, limit int) (*QueryExecutionResult, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	rawNames := make([]string, len(colTypes))
	for i, ct := range colTypes {
		rawNames[i] = ct.Name()
	}
	names := UniqueColumnNames(rawNames)

	columns := make([]ColumnInfo, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = ColumnInfo{Name: names[i], Type: ct.DatabaseTypeName()}
	}

	result := &QueryExecutionResult{
		Columns: columns,
		Rows:    make([]models.Row, 0),
	}

	for rows.Next() {
		if len(result.Rows) >= limit {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		for i, v := range values {
			values[i] = NormalizeValue(v)
		}
		result.Rows = append(result.Rows, models.NewRow(names, values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

var (
	_ QueryExecutor    = (*SQLQueryExecutor)(nil)
	_ ConnectionTester = (*SQLQueryExecutor)(nil)
)
