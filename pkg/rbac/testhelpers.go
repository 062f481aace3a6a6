package rbac

import (
	"context"
	"database/sql"
	"io"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// testSchema mirrors the migration schema in SQLite dialect, for fast
// in-memory store tests here and in the packages that build on the store.
const testSchema = `
	CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT,
		full_name TEXT,
		role TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE api_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		token_prefix TEXT NOT NULL,
		name TEXT NOT NULL,
		expires_at TIMESTAMP,
		last_used_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		revoked_at TIMESTAMP
	);

	CREATE TABLE permissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		module TEXT NOT NULL,
		action TEXT NOT NULL
	);

	CREATE TABLE role_permissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		role TEXT NOT NULL,
		permission_id INTEGER NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
		UNIQUE(role, permission_id)
	);

	CREATE TABLE audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		event_type TEXT NOT NULL,
		status TEXT NOT NULL,
		user_id INTEGER,
		username TEXT,
		role TEXT,
		resource_type TEXT,
		resource_id TEXT,
		ip_address TEXT,
		user_agent TEXT,
		request_id TEXT,
		method TEXT,
		path TEXT,
		status_code INTEGER,
		message TEXT,
		error_message TEXT,
		metadata TEXT
	);
`

// NewTestDB opens an in-memory SQLite database with the authorization
// schema applied. The database is closed when the test finishes.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Every pooled connection to ":memory:" is a distinct database; pin the
	// pool to one connection so the schema is visible everywhere.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}
	return db
}

// NewSeededTestStore returns a store over an in-memory database with the
// default matrix applied.
func NewSeededTestStore(t testing.TB) *Store {
	t.Helper()

	store := NewStore(NewTestDB(t))
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	seeder := NewSeeder(store, nil, quiet, nil)
	if err := seeder.ApplyDefault(context.Background()); err != nil {
		t.Fatalf("failed to seed test store: %v", err)
	}
	return store
}
