package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UserStore persists platform accounts. Account management beyond what the
// authorization service itself needs (seeding, lookups, deactivation) lives
// in the upstream application.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new user store
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts an account.
func (s *UserStore) CreateUser(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, full_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, user.Username, user.Email, user.FullName, user.Role, user.IsActive, now, now).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUserByUsername retrieves an account by username.
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var (
		user     User
		email    sql.NullString
		fullName sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, role, is_active, created_at, updated_at
		FROM users
		WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &email, &fullName, &user.Role,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if email.Valid {
		user.Email = email.String
	}
	if fullName.Valid {
		user.FullName = fullName.String
	}
	return &user, nil
}

// EnsureUser creates the account if it does not exist and returns it either
// way. Used by seed tooling; idempotent.
func (s *UserStore) EnsureUser(ctx context.Context, username, role string) (*User, error) {
	existing, err := s.GetUserByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}

	user := &User{Username: username, Role: role, IsActive: true}
	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetActive toggles an account. Deactivation invalidates every token the
// account holds at validation time, without touching the tokens themselves.
func (s *UserStore) SetActive(ctx context.Context, userID int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3
	`, active, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user not found: %d", userID)
	}
	return nil
}
