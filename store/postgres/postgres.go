// Package postgres implements store.Store on PostgreSQL via database/sql
// and lib/pq. Flexible columns (sizes, stock counts, order items) are
// stored as jsonb; money columns scan into decimal.Decimal directly.
package postgres

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/medatechnology/goutil/simplelog"

	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/store"
)

// Postgres implements store.Store.
type Postgres struct {
	db     *sql.DB
	config *Config
	logger logging.Logger
}

// Compile-time check.
var _ store.Store = (*Postgres)(nil)

// Connect validates the configuration, opens the pool and pings the
// database. A failure here is fatal to the caller; there is no degraded
// half-connected mode.
func Connect(config *Config, logger logging.Logger) (*Postgres, error) {
	if logger == nil {
		logger = logging.Default()
	}
	dsn, err := config.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	logger.Info("connected to PostgreSQL",
		logging.String("host", config.Host),
		logging.String("database", config.DBName),
	)

	return &Postgres{
		db:     db,
		config: config,
		logger: logger,
	}, nil
}

// IsConnected reports whether the database answers a ping.
func (p *Postgres) IsConnected() bool {
	if p.db == nil {
		return false
	}
	if err := p.db.Ping(); err != nil {
		simplelog.LogErr(err, "error pinging database")
		return false
	}
	return true
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	p.logger.Info("closing PostgreSQL connection pool")
	return p.db.Close()
}

// DB exposes the underlying pool for schema setup.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// jsonValue marshals v for a jsonb column. Nil maps and slices become SQL
// NULL rather than the string "null".
func jsonValue(v interface{}) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

// scanJSON unmarshals a jsonb column into dst. NULL leaves dst untouched.
func scanJSON(src []byte, dst interface{}) error {
	if len(src) == 0 {
		return nil
	}
	return json.Unmarshal(src, dst)
}

// nullString maps the empty string to SQL NULL for optional text columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// notFound converts sql.ErrNoRows into the store-level sentinel so callers
// never import database/sql.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
