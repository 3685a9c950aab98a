package datasource

import (
	"context"
	"sync"
)

// MockQueryExecutor is a test double for QueryExecutor.
type MockQueryExecutor struct {
	QueryFunc func(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error)
	PingErr   error

	mu         sync.Mutex
	queryCalls []string
	lastLimit  int
	closed     bool
}

// Query records the call and delegates to QueryFunc. Without QueryFunc it returns an empty result.
func (m *MockQueryExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error) {
	m.mu.Lock()
	m.queryCalls = append(m.queryCalls, sqlQuery)
	m.lastLimit = limit
	m.mu.Unlock()

	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sqlQuery, limit)
	}
	return &QueryExecutionResult{Columns: []ColumnInfo{}, Rows: nil}, nil
}

// TestConnection returns PingErr.
func (m *MockQueryExecutor) TestConnection(ctx context.Context) error {
	return m.PingErr
}

// Close marks the executor closed.
func (m *MockQueryExecutor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// QueryCalls returns the SQL of every Query call.
func (m *MockQueryExecutor) QueryCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queryCalls...)
}

// LastLimit returns the limit passed to the most recent Query call.
func (m *MockQueryExecutor) LastLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLimit
}

// Closed reports whether Close was called.
func (m *MockQueryExecutor) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ QueryExecutor = (*MockQueryExecutor)(nil)
