package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	connMaxLifetime = 30 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

// Database wraps the PostgreSQL connection pool holding the permission
// matrix, tokens, and audit trail
type Database struct {
	db     *sql.DB
	config Config
}

// Connect opens a PostgreSQL connection pool and verifies connectivity
func Connect(config Config) (*Database, error) {
	db, err := sql.Open("postgres", config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	configurePool(db, config)

	ctx, cancel := context.WithTimeout(context.Background(), config.PostgresTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Database{db: db, config: config}, nil
}

// configurePool applies pool limits to a database handle
func configurePool(db *sql.DB, config Config) {
	db.SetMaxOpenConns(config.PostgresMaxConns)
	db.SetMaxIdleConns(config.PostgresMinConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)
}

// DB returns the underlying database handle
func (d *Database) DB() *sql.DB {
	return d.db
}

// HealthCheck verifies the database answers within the configured timeout
func (d *Database) HealthCheck(ctx context.Context) error {
	timeout := d.config.PostgresTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres unhealthy: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics
func (d *Database) Stats() sql.DBStats {
	return d.db.Stats()
}

// Close closes the connection pool
func (d *Database) Close() error {
	return d.db.Close()
}
