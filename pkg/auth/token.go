package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// TokenPrefix identifies CareGrid tokens
	TokenPrefix = "caregrid_"
	// TokenLength is the total length of random bytes (32 bytes = 256 bits)
	TokenLength = 32
)

var (
	// ErrInvalidToken is returned for malformed, unknown, or revoked tokens
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for tokens past their expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrUserInactive is returned when the token's account is deactivated
	ErrUserInactive = errors.New("user inactive")
)

// TokenGenerator generates and validates bearer tokens.
// Format: caregrid_<base64url(32 random bytes)>.
type TokenGenerator struct{}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

// GenerateToken creates a new bearer token, its storage digest, and the
// display prefix (first 8 encoded chars) kept for identification.
func (tg *TokenGenerator) GenerateToken() (token string, tokenHash string, tokenPrefix string, err error) {
	randomBytes := make([]byte, TokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(randomBytes)
	fullToken := TokenPrefix + encoded

	hash := sha256.Sum256([]byte(fullToken))

	prefix := TokenPrefix
	if len(encoded) >= 8 {
		prefix = TokenPrefix + encoded[:8]
	}

	return fullToken, hex.EncodeToString(hash[:]), prefix, nil
}

// HashToken computes the SHA-256 digest of a token for lookup
func (tg *TokenGenerator) HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateTokenFormat checks if a token has the correct format
func (tg *TokenGenerator) ValidateTokenFormat(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return fmt.Errorf("%w: token must start with %q", ErrInvalidToken, TokenPrefix)
	}

	encoded := strings.TrimPrefix(token, TokenPrefix)
	if len(encoded) == 0 {
		return fmt.Errorf("%w: token is too short", ErrInvalidToken)
	}

	if _, err := base64.RawURLEncoding.DecodeString(encoded); err != nil {
		return fmt.Errorf("%w: invalid token encoding", ErrInvalidToken)
	}
	return nil
}

// ExtractPrefix extracts the display prefix from a token
func (tg *TokenGenerator) ExtractPrefix(token string) string {
	if !strings.HasPrefix(token, TokenPrefix) {
		return ""
	}
	encoded := strings.TrimPrefix(token, TokenPrefix)
	if len(encoded) >= 8 {
		return TokenPrefix + encoded[:8]
	}
	return token
}

// TokenManager manages bearer token lifecycle against the database. Token
// issuance endpoints are not exposed over HTTP; tokens are provisioned
// out of band and validated here on every request.
type TokenManager struct {
	db        *sql.DB
	generator *TokenGenerator
}

// NewTokenManager creates a new token manager
func NewTokenManager(db *sql.DB) *TokenManager {
	return &TokenManager{db: db, generator: NewTokenGenerator()}
}

// CreateToken provisions a token for a user and returns the plaintext
// exactly once.
func (tm *TokenManager) CreateToken(ctx context.Context, userID int64, name string, expiresAt *time.Time) (*APIToken, string, error) {
	token, tokenHash, tokenPrefix, err := tm.generator.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	apiToken := &APIToken{
		UserID:      userID,
		TokenHash:   tokenHash,
		TokenPrefix: tokenPrefix,
		Name:        name,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}

	err = tm.db.QueryRowContext(ctx, `
		INSERT INTO api_tokens (user_id, token_hash, token_prefix, name, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, userID, tokenHash, tokenPrefix, name, expiresAt, apiToken.CreatedAt).Scan(&apiToken.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store token: %w", err)
	}

	return apiToken, token, nil
}

// ValidateToken validates a bearer token and returns the identity it
// authenticates. Failures map onto the sentinels: malformed, unknown, or
// revoked tokens to ErrInvalidToken, expiry to ErrTokenExpired, and a
// deactivated account to ErrUserInactive.
func (tm *TokenManager) ValidateToken(ctx context.Context, token string) (*AuthContext, error) {
	if err := tm.generator.ValidateTokenFormat(token); err != nil {
		return nil, err
	}

	tokenHash := tm.generator.HashToken(token)

	var (
		user     User
		apiToken APIToken
		email    sql.NullString
		fullName sql.NullString
		expires  sql.NullTime
		lastUsed sql.NullTime
		revoked  sql.NullTime
	)
	err := tm.db.QueryRowContext(ctx, `
		SELECT t.id, t.user_id, t.token_prefix, t.name, t.expires_at, t.last_used_at, t.created_at, t.revoked_at,
		       u.id, u.username, u.email, u.full_name, u.role, u.is_active, u.created_at, u.updated_at
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1
	`, tokenHash).Scan(
		&apiToken.ID, &apiToken.UserID, &apiToken.TokenPrefix, &apiToken.Name,
		&expires, &lastUsed, &apiToken.CreatedAt, &revoked,
		&user.ID, &user.Username, &email, &fullName, &user.Role, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	apiToken.TokenHash = tokenHash
	if expires.Valid {
		t := expires.Time
		apiToken.ExpiresAt = &t
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		apiToken.LastUsedAt = &t
	}
	if revoked.Valid {
		t := revoked.Time
		apiToken.RevokedAt = &t
	}
	if email.Valid {
		user.Email = email.String
	}
	if fullName.Valid {
		user.FullName = fullName.String
	}

	if apiToken.RevokedAt != nil {
		return nil, ErrInvalidToken
	}
	if apiToken.ExpiresAt != nil && apiToken.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return &AuthContext{User: &user, Token: &apiToken}, nil
}

// TouchLastUsed records token use. Called off the request path; failure is
// not a validation failure.
func (tm *TokenManager) TouchLastUsed(ctx context.Context, tokenID int64) error {
	_, err := tm.db.ExecContext(ctx, `
		UPDATE api_tokens SET last_used_at = $1 WHERE id = $2
	`, time.Now().UTC(), tokenID)
	if err != nil {
		return fmt.Errorf("failed to touch token: %w", err)
	}
	return nil
}

// RevokeToken revokes a token. Revocation is immediate and permanent.
func (tm *TokenManager) RevokeToken(ctx context.Context, tokenID int64) error {
	res, err := tm.db.ExecContext(ctx, `
		UPDATE api_tokens SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL
	`, time.Now().UTC(), tokenID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrInvalidToken
	}
	return nil
}

// ListUserTokens lists a user's tokens, newest first, revoked included.
func (tm *TokenManager) ListUserTokens(ctx context.Context, userID int64) ([]*APIToken, error) {
	rows, err := tm.db.QueryContext(ctx, `
		SELECT id, user_id, token_prefix, name, expires_at, last_used_at, created_at, revoked_at
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*APIToken
	for rows.Next() {
		var (
			token    APIToken
			expires  sql.NullTime
			lastUsed sql.NullTime
			revoked  sql.NullTime
		)
		err := rows.Scan(&token.ID, &token.UserID, &token.TokenPrefix, &token.Name,
			&expires, &lastUsed, &token.CreatedAt, &revoked)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		if expires.Valid {
			t := expires.Time
			token.ExpiresAt = &t
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			token.LastUsedAt = &t
		}
		if revoked.Valid {
			t := revoked.Time
			token.RevokedAt = &t
		}
		tokens = append(tokens, &token)
	}
	return tokens, rows.Err()
}

// CountActiveTokens returns the number of usable tokens, for the gauge.
func (tm *TokenManager) CountActiveTokens(ctx context.Context) (int64, error) {
	var n int64
	err := tm.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM api_tokens
		WHERE revoked_at IS NULL AND (expires_at IS NULL OR expires_at > $1)
	`, time.Now().UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return n, nil
}

// CleanupExpiredTokens deletes tokens past expiry and returns the count.
func (tm *TokenManager) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	res, err := tm.db.ExecContext(ctx, `
		DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at < $1
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleaned tokens: %w", err)
	}
	return n, nil
}
