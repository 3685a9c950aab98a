package mssql

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
)

// Config contains SQL Server connection options (SQL authentication only).
type Config struct {
	Host                   string
	Port                   int
	Database               string
	Username               string
	Password               string
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int // seconds
	MaxOpenConns           int
	QueryTimeout           time.Duration
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// FromConnectionConfig creates a Config from the shared connection settings.
// Business One company databases live in their own database, so Database is required.
func FromConnectionConfig(cc *datasource.ConnectionConfig) (*Config, error) {
	if cc.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cc.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if cc.User == "" {
		return nil, fmt.Errorf("username is required for SQL authentication")
	}

	cfg := &Config{
		Host:                   cc.Host,
		Port:                   cc.Port,
		Database:               cc.Database,
		Username:               cc.User,
		Password:               cc.Password,
		Encrypt:                cc.Encrypt,
		TrustServerCertificate: !cc.Encrypt,
		ConnectionTimeout:      DefaultConnectionTimeout(),
		MaxOpenConns:           cc.MaxOpenConns,
		QueryTimeout:           cc.QueryTimeout,
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	return cfg, nil
}

// ConnectionString returns a sqlserver:// URL for go-mssqldb.
func (c *Config) ConnectionString() string {
	query := url.Values{}
	query.Add("database", c.Database)

	if c.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if c.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if c.ConnectionTimeout > 0 {
		query.Add("connection timeout", strconv.Itoa(c.ConnectionTimeout))
	}

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		RawQuery: query.Encode(),
	}
	return u.String()
}
