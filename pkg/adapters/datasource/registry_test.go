package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	mock := &MockQueryExecutor{}
	var gotCfg *ConnectionConfig

	Register(DatasourceAdapterRegistration{
		Info: DatasourceAdapterInfo{Type: "test_registry", DisplayName: "Test", DefaultPort: 1},
		QueryExecutorFactory: func(ctx context.Context, cfg *ConnectionConfig, logger *zap.Logger) (QueryExecutor, error) {
			gotCfg = cfg
			return mock, nil
		},
	})

	assert.True(t, IsRegistered("test_registry"))
	assert.False(t, IsRegistered("oracle"))

	found := false
	for _, info := range RegisteredAdapters() {
		if info.Type == "test_registry" {
			found = true
			assert.Equal(t, "Test", info.DisplayName)
		}
	}
	assert.True(t, found)

	cfg := &ConnectionConfig{Type: "test_registry", Host: "db"}
	exec, err := NewQueryExecutor(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Same(t, mock, exec)
	assert.Same(t, cfg, gotCfg)
}

func TestNewQueryExecutor_UnknownType(t *testing.T) {
	_, err := NewQueryExecutor(context.Background(), &ConnectionConfig{Type: "oracle"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported datasource type: oracle")
}

func TestMockQueryExecutor_RecordsCalls(t *testing.T) {
	m := &MockQueryExecutor{}
	result, err := m.Query(context.Background(), "SELECT 1", 25)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, []string{"SELECT 1"}, m.QueryCalls())
	assert.Equal(t, 25, m.LastLimit())

	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
}
