// Package store implements the relational data store on PostgreSQL:
// the read queries the assembler consumes and the single write path
// that persists generated report snapshots.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/riskforge/riskforge/pkg/assemble"
	"github.com/riskforge/riskforge/pkg/retry"
)

var _ assemble.Store = (*Store)(nil)

// Config holds connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DefaultConfig targets a local development database.
func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     5432,
		User:     "riskforge",
		Database: "riskforge",
		SSLMode:  "disable",
	}
}

// DSN renders the lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Store is a PostgreSQL-backed implementation of the assembler's read
// interface plus report snapshot persistence.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New wraps an existing database handle. Used by tests and callers
// that manage their own pool.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to PostgreSQL and verifies the connection, retrying
// with backoff to ride out database startup races.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		return db.PingContext(ctx)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}
	return New(db, opts...), nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// closeRows closes rows, logging instead of shadowing the query error.
func (s *Store) closeRows(rows *sql.Rows, query string) {
	if err := rows.Close(); err != nil {
		s.logger.Warn("closing result rows", "query", query, "error", err)
	}
}
