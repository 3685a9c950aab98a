package hana

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
)

func TestFromConnectionConfig(t *testing.T) {
	cfg, err := FromConnectionConfig(&datasource.ConnectionConfig{
		Host:         "hana.local",
		User:         "B1READ",
		Password:     "p@ss:word",
		Database:     "NDB",
		Schema:       "SBODEMOUS",
		MaxOpenConns: 4,
		QueryTimeout: 30 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultPort(), cfg.Port)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
}

func TestFromConnectionConfig_Required(t *testing.T) {
	_, err := FromConnectionConfig(&datasource.ConnectionConfig{User: "x"})
	assert.EqualError(t, err, "host is required")

	_, err = FromConnectionConfig(&datasource.ConnectionConfig{Host: "x"})
	assert.EqualError(t, err, "user is required")
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Host:     "hana.local",
		Port:     30015,
		User:     "B1READ",
		Password: "p@ss:word",
		Database: "NDB",
		Schema:   "SBODEMOUS",
		Encrypt:  true,
	}

	u, err := url.Parse(cfg.DSN())
	require.NoError(t, err)

	assert.Equal(t, "hdb", u.Scheme)
	assert.Equal(t, "hana.local:30015", u.Host)
	assert.Equal(t, "B1READ", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss:word", pw)
	assert.Equal(t, "NDB", u.Query().Get("databaseName"))
	assert.Equal(t, "SBODEMOUS", u.Query().Get("defaultSchema"))
	assert.Equal(t, "hana.local", u.Query().Get("TLSServerName"))
}

func TestConfig_DSNWithoutOptionalParams(t *testing.T) {
	cfg := &Config{Host: "hana.local", Port: 39015, User: "u", Password: "p"}
	assert.Equal(t, "hdb://u:p@hana.local:39015", cfg.DSN())
}

func TestRegistered(t *testing.T) {
	assert.True(t, datasource.IsRegistered("hana"))
}

func TestNewQueryExecutor_DoesNotConnect(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 1, User: "u", Password: "p"}
	exec, err := NewQueryExecutor(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, exec.Close())
}
