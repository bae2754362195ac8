package postgres

import (
	"fmt"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost            = "localhost"
	DefaultPort            = 5432
	DefaultSSLMode         = "require"
	DefaultConnectTimeout  = 10 * time.Second
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultConnMaxIdleTime = 10 * time.Minute
	DefaultApplicationName = "kustore"
)

// Config holds the PostgreSQL connection settings. The hosted backend is a
// managed Postgres, so SSL defaults to "require".
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration

	ApplicationName string
}

// NewConfig creates a Config with the given credentials and defaults for
// everything else.
func NewConfig(host string, port int, user, password, dbName string) *Config {
	return &Config{
		Host:            host,
		Port:            port,
		User:            user,
		Password:        password,
		DBName:          dbName,
		SSLMode:         DefaultSSLMode,
		MaxOpenConns:    DefaultMaxOpenConns,
		MaxIdleConns:    DefaultMaxIdleConns,
		ConnMaxLifetime: DefaultConnMaxLifetime,
		ConnMaxIdleTime: DefaultConnMaxIdleTime,
		ConnectTimeout:  DefaultConnectTimeout,
		ApplicationName: DefaultApplicationName,
	}
}

// Validate checks required fields and fills missing optional ones with
// defaults. Configuration problems are fatal at startup, never degraded to
// a null client.
func (c *Config) Validate() error {
	if c.User == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidConfig)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: database name is required", ErrInvalidConfig)
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = DefaultPort
	}
	if c.SSLMode == "" {
		c.SSLMode = DefaultSSLMode
	}
	switch c.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("%w: invalid SSL mode '%s'", ErrInvalidConfig, c.SSLMode)
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = DefaultConnMaxIdleTime
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ApplicationName == "" {
		c.ApplicationName = DefaultApplicationName
	}
	return nil
}

// DSN builds the lib/pq key=value connection string.
func (c *Config) DSN() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("user=%s", c.User),
		fmt.Sprintf("password=%s", c.Password),
		fmt.Sprintf("dbname=%s", c.DBName),
		fmt.Sprintf("sslmode=%s", c.SSLMode),
		fmt.Sprintf("connect_timeout=%d", int(c.ConnectTimeout.Seconds())),
		fmt.Sprintf("application_name=%s", c.ApplicationName),
	}
	return strings.Join(parts, " "), nil
}

// String returns a safe representation without the password.
func (c *Config) String() string {
	return fmt.Sprintf("Postgres{host=%s, port=%d, user=%s, dbname=%s, sslmode=%s}",
		c.Host, c.Port, c.User, c.DBName, c.SSLMode)
}
