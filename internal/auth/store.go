package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cybershield/cybershield/pkg/plugin"
)

// UserStore handles persistence for users and refresh tokens.
type UserStore struct {
	store plugin.Store
}

// NewUserStore creates the store and applies the auth schema migrations.
func NewUserStore(ctx context.Context, store plugin.Store) (*UserStore, error) {
	migrations := []plugin.Migration{
		{
			Version:     1,
			Description: "create users table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE auth_users (
						id TEXT PRIMARY KEY,
						username TEXT NOT NULL UNIQUE,
						email TEXT NOT NULL UNIQUE,
						password_hash TEXT NOT NULL,
						created_at TIMESTAMP NOT NULL,
						last_login TIMESTAMP,
						disabled INTEGER NOT NULL DEFAULT 0,
						failed_login_attempts INTEGER NOT NULL DEFAULT 0,
						locked_until TIMESTAMP
					)`)
				return err
			},
		},
		{
			Version:     2,
			Description: "create refresh tokens table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE auth_refresh_tokens (
						id TEXT PRIMARY KEY,
						user_id TEXT NOT NULL REFERENCES auth_users(id) ON DELETE CASCADE,
						token_hash TEXT NOT NULL UNIQUE,
						expires_at TIMESTAMP NOT NULL,
						created_at TIMESTAMP NOT NULL,
						revoked INTEGER NOT NULL DEFAULT 0
					);
					CREATE INDEX idx_auth_refresh_tokens_user ON auth_refresh_tokens(user_id)`)
				return err
			},
		},
	}

	if err := store.Migrate(ctx, "auth", migrations); err != nil {
		return nil, fmt.Errorf("auth migrations: %w", err)
	}
	return &UserStore{store: store}, nil
}

const userColumns = `id, username, email, password_hash, created_at,
	last_login, disabled, failed_login_attempts, locked_until`

// CreateUser inserts a new user.
func (s *UserStore) CreateUser(ctx context.Context, u *User) error {
	_, err := s.store.DB().ExecContext(ctx, `
		INSERT INTO auth_users (id, username, email, password_hash, created_at, disabled)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt, boolToInt(u.Disabled))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID fetches a user by ID. Returns ErrUserNotFound if absent.
func (s *UserStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := s.store.DB().QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername fetches a user by username. Returns ErrUserNotFound if absent.
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.store.DB().QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE username = ?`, username)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email. Returns ErrUserNotFound if absent.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.store.DB().QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE email = ?`, email)
	return scanUser(row)
}

// UpdateLastLogin records a successful login time.
func (s *UserStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.store.DB().ExecContext(ctx,
		`UPDATE auth_users SET last_login = ? WHERE id = ?`, at, id)
	return err
}

// RecordFailedLogin increments the failed login counter for a user.
func (s *UserStore) RecordFailedLogin(ctx context.Context, id string) (int, error) {
	var attempts int
	err := s.store.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE auth_users SET failed_login_attempts = failed_login_attempts + 1 WHERE id = ?`,
			id); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`SELECT failed_login_attempts FROM auth_users WHERE id = ?`, id).Scan(&attempts)
	})
	if err != nil {
		return 0, fmt.Errorf("record failed login: %w", err)
	}
	return attempts, nil
}

// LockAccount locks a user account until the given time.
func (s *UserStore) LockAccount(ctx context.Context, id string, until time.Time) error {
	_, err := s.store.DB().ExecContext(ctx,
		`UPDATE auth_users SET locked_until = ? WHERE id = ?`, until, id)
	return err
}

// ClearFailedLogins resets the lockout state after a successful login.
func (s *UserStore) ClearFailedLogins(ctx context.Context, id string) error {
	_, err := s.store.DB().ExecContext(ctx,
		`UPDATE auth_users SET failed_login_attempts = 0, locked_until = NULL WHERE id = ?`, id)
	return err
}

// SaveRefreshToken stores a hashed refresh token.
func (s *UserStore) SaveRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error {
	_, err := s.store.DB().ExecContext(ctx, `
		INSERT INTO auth_refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, tokenHash, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken looks up a non-revoked, unexpired refresh token by hash.
// Returns the owning user ID and the token row ID.
func (s *UserStore) GetRefreshToken(ctx context.Context, tokenHash string) (userID, tokenID string, err error) {
	row := s.store.DB().QueryRowContext(ctx, `
		SELECT id, user_id FROM auth_refresh_tokens
		WHERE token_hash = ? AND revoked = 0 AND expires_at > ?`,
		tokenHash, time.Now())
	if err := row.Scan(&tokenID, &userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrInvalidToken
		}
		return "", "", fmt.Errorf("get refresh token: %w", err)
	}
	return userID, tokenID, nil
}

// RevokeRefreshToken marks a single refresh token as revoked.
func (s *UserStore) RevokeRefreshToken(ctx context.Context, tokenID string) error {
	_, err := s.store.DB().ExecContext(ctx,
		`UPDATE auth_refresh_tokens SET revoked = 1 WHERE id = ?`, tokenID)
	return err
}

// RevokeUserTokens revokes all refresh tokens for a user.
func (s *UserStore) RevokeUserTokens(ctx context.Context, userID string) error {
	_, err := s.store.DB().ExecContext(ctx,
		`UPDATE auth_refresh_tokens SET revoked = 1 WHERE user_id = ?`, userID)
	return err
}

// PurgeExpiredTokens deletes refresh tokens past their expiry.
func (s *UserStore) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	res, err := s.store.DB().ExecContext(ctx,
		`DELETE FROM auth_refresh_tokens WHERE expires_at <= ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return res.RowsAffected()
}

// CountUsers returns the total number of user accounts.
func (s *UserStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.store.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_users`).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var lastLogin, lockedUntil sql.NullTime
	var disabled int

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt,
		&lastLogin, &disabled, &u.FailedLoginAttempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	if lockedUntil.Valid {
		u.LockedUntil = &lockedUntil.Time
	}
	u.Disabled = disabled != 0
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
