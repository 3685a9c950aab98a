package datasource

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// DatasourceAdapterInfo describes a registered adapter.
type DatasourceAdapterInfo struct {
	Type        string `json:"type"`         // "hana", "postgres", "mssql"
	DisplayName string `json:"display_name"` // "SAP HANA", "PostgreSQL"
	Description string `json:"description"`
	DefaultPort int    `json:"default_port"`
}

// QueryExecutorFactory opens a pool for the given connection settings.
type QueryExecutorFactory func(ctx context.Context, cfg *ConnectionConfig, logger *zap.Logger) (QueryExecutor, error)

// DatasourceAdapterRegistration contains info + factory for creating executors.
type DatasourceAdapterRegistration struct {
	Info                 DatasourceAdapterInfo
	QueryExecutorFactory QueryExecutorFactory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DatasourceAdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg DatasourceAdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []DatasourceAdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasourceAdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetQueryExecutorFactory returns the query executor factory for a datasource type.
// Returns nil if type is not registered.
func GetQueryExecutorFactory(dsType string) QueryExecutorFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dsType]; ok {
		return reg.QueryExecutorFactory
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(dsType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dsType]
	return ok
}
