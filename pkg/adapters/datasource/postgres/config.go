package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	Schema       string // applied as search_path
	SSLMode      string // "disable", "require", "verify-ca", "verify-full"
	MaxConns     int32
	QueryTimeout time.Duration
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// FromConnectionConfig creates a Config from the shared connection settings.
func FromConnectionConfig(cc *datasource.ConnectionConfig) (*Config, error) {
	if cc.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cc.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if cc.Database == "" {
		return nil, fmt.Errorf("database is required")
	}

	cfg := &Config{
		Host:         cc.Host,
		Port:         cc.Port,
		User:         cc.User,
		Password:     cc.Password,
		Database:     cc.Database,
		Schema:       cc.Schema,
		SSLMode:      "disable",
		MaxConns:     int32(cc.MaxOpenConns),
		QueryTimeout: cc.QueryTimeout,
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	if cc.Encrypt {
		cfg.SSLMode = "require"
	}
	return cfg, nil
}

// ConnectionString returns a postgresql:// URL for pgx.
func (c *Config) ConnectionString() string {
	query := url.Values{}
	query.Set("sslmode", c.SSLMode)

	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: query.Encode(),
	}
	return u.String()
}
