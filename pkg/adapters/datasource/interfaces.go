package datasource

import (
	"context"
	"time"

	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
)

// MaxQueryLimit is the hard cap on rows returned by Query.
// This protects against unbounded queries that could exhaust server memory.
const MaxQueryLimit = 10000

// ConnectionTester tests database connectivity.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	TestConnection(ctx context.Context) error
}

// QueryExecutor runs generated SQL against the configured database.
// Implementations own a connection pool; each Query acquires one connection
// and releases it before returning.
type QueryExecutor interface {
	// Query runs a statement and returns at most limit rows.
	// The statement is passed to the database unmodified; rows beyond the
	// limit are not fetched and the result is marked Truncated.
	//
	// Limit behavior:
	//   - limit <= 0: uses MaxQueryLimit
	//   - limit > MaxQueryLimit: capped to MaxQueryLimit
	Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error)

	// Close releases the pool.
	Close() error
}

// ColumnInfo describes a result column with database-agnostic type information.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // Database type name (e.g., "NVARCHAR", "DECIMAL", "INT4")
}

// QueryExecutionResult holds the results from executing a query.
type QueryExecutionResult struct {
	Columns   []ColumnInfo `json:"columns"`
	Rows      []models.Row `json:"rows"`
	RowCount  int          `json:"row_count"`
	Truncated bool         `json:"truncated"`
}

// ColumnNames returns the result column names in order.
func (r *QueryExecutionResult) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// ConnectionConfig carries the settings every adapter understands.
// Port 0 selects the adapter's default port.
type ConnectionConfig struct {
	Type         string
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	Schema       string
	Encrypt      bool
	MaxOpenConns int
	QueryTimeout time.Duration
}

// EffectiveLimit applies the MaxQueryLimit rules to a requested limit.
func EffectiveLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
