package postgres

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
	"github.com/ekaya-inc/b1-query-assistant/pkg/logging"
	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
)

// QueryExecutor provides PostgreSQL query execution over a pgx pool.
type QueryExecutor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *zap.Logger
}

// NewQueryExecutor creates the pool. pgxpool connects lazily, so an unreachable
// server surfaces on the first query rather than at start-up.
func NewQueryExecutor(ctx context.Context, cfg *Config, logger *zap.Logger) (*QueryExecutor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %s", logging.SanitizeError(err))
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.Schema != "" {
		poolCfg.ConnConfig.RuntimeParams["search_path"] = cfg.Schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %s", logging.SanitizeError(err))
	}

	logger.Info("PostgreSQL datasource configured",
		zap.String("dsn", logging.SanitizeConnectionString(cfg.ConnectionString())))

	return &QueryExecutor{
		pool:    pool,
		timeout: cfg.QueryTimeout,
		logger:  logger.Named("datasource").With(zap.String("type", "postgres")),
	}, nil
}

// Query runs sqlQuery on one acquired connection and returns at most limit rows.
func (e *QueryExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	limit = datasource.EffectiveLimit(limit)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Release()

	// Simple protocol sends the statement as-is, without a prepare round trip.
	rows, err := conn.Query(ctx, sqlQuery, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	typeMap := conn.Conn().TypeMap()
	fieldDescs := rows.FieldDescriptions()

	rawNames := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		rawNames[i] = fd.Name
	}
	names := datasource.UniqueColumnNames(rawNames)

	columns := make([]datasource.ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = datasource.ColumnInfo{Name: names[i], Type: typeName(typeMap, fd.DataTypeOID)}
	}

	result := &datasource.QueryExecutionResult{
		Columns: columns,
		Rows:    make([]models.Row, 0),
	}

	for rows.Next() {
		if len(result.Rows) >= limit {
			result.Truncated = true
			break
		}

		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		for i, v := range values {
			values[i] = normalizePgValue(v)
		}
		result.Rows = append(result.Rows, models.NewRow(names, values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.RowCount = len(result.Rows)

	e.logger.Debug("Query executed",
		zap.String("sql", logging.SanitizeQuery(sqlQuery)),
		zap.Int("rows", result.RowCount),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// TestConnection verifies the database is reachable.
func (e *QueryExecutor) TestConnection(ctx context.Context) error {
	if err := e.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	return nil
}

// Close releases the pool.
func (e *QueryExecutor) Close() error {
	e.pool.Close()
	return nil
}

func typeName(m *pgtype.Map, oid uint32) string {
	if t, ok := m.TypeForOID(oid); ok {
		return t.Name
	}
	return fmt.Sprintf("oid:%d", oid)
}

// normalizePgValue converts pgx decoded values into JSON-friendly types.
func normalizePgValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return datasource.FiniteOrNil(f.Float64)
	case [16]byte:
		return uuid.UUID(val).String()
	case netip.Prefix:
		return val.String()
	case pgtype.Interval:
		if !val.Valid {
			return nil
		}
		return fmt.Sprintf("%d months %d days %dus", val.Months, val.Days, val.Microseconds)
	default:
		return datasource.NormalizeValue(v)
	}
}

var (
	_ datasource.QueryExecutor    = (*QueryExecutor)(nil)
	_ datasource.ConnectionTester = (*QueryExecutor)(nil)
)
