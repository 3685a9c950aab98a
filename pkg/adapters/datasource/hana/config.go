package hana

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ekaya-inc/b1-query-assistant/pkg/adapters/datasource"
)

// Config contains SAP HANA connection options.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string // tenant database name; empty connects to the port's default
	Schema       string // default schema for unqualified names
	Encrypt      bool
	MaxOpenConns int
	QueryTimeout time.Duration
}

// DefaultPort returns the SQL port of the first tenant on instance 00.
func DefaultPort() int {
	return 39015
}

// FromConnectionConfig builds a Config from the shared connection settings.
func FromConnectionConfig(cc *datasource.ConnectionConfig) (*Config, error) {
	if cc.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cc.User == "" {
		return nil, fmt.Errorf("user is required")
	}

	cfg := &Config{
		Host:         cc.Host,
		Port:         cc.Port,
		User:         cc.User,
		Password:     cc.Password,
		Database:     cc.Database,
		Schema:       cc.Schema,
		Encrypt:      cc.Encrypt,
		MaxOpenConns: cc.MaxOpenConns,
		QueryTimeout: cc.QueryTimeout,
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	return cfg, nil
}

// DSN returns the go-hdb connection string.
func (c *Config) DSN() string {
	query := url.Values{}
	if c.Database != "" {
		query.Set("databaseName", c.Database)
	}
	if c.Schema != "" {
		query.Set("defaultSchema", c.Schema)
	}
	if c.Encrypt {
		query.Set("TLSServerName", c.Host)
	}

	u := url.URL{
		Scheme:   "hdb",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		RawQuery: query.Encode(),
	}
	return u.String()
}
