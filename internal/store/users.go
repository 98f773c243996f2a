package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUsernameTaken is returned when registering a username that already
// exists.
var ErrUsernameTaken = errors.New("username already taken")

// CreateUser inserts a new account with a pre-hashed password.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	now := time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username,
		passwordHash,
		timestamp(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// GetUserByName looks a user up by username. Returns nil when absent.
func (s *Store) GetUserByName(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username,
	)
	return scanUser(row)
}

// GetUser looks a user up by id. Returns nil when absent.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		user       User
		createdRaw string
	)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		user.CreatedAt = created
	}
	return &user, nil
}

// CreateLogin records a session token for a user.
func (s *Store) CreateLogin(ctx context.Context, token string, userID int64, ttl time.Duration) (*Login, error) {
	now := time.Now().UTC()
	expires := now.Add(ttl)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO logins (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token,
		userID,
		timestamp(now),
		timestamp(expires),
	)
	if err != nil {
		return nil, fmt.Errorf("insert login: %w", err)
	}
	return &Login{Token: token, UserID: userID, CreatedAt: now, ExpiresAt: expires}, nil
}

// GetLogin resolves a token to its login record. Expired tokens are deleted
// on sight and reported as absent.
func (s *Store) GetLogin(ctx context.Context, token string) (*Login, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT token, user_id, created_at, expires_at FROM logins WHERE token = ?`,
		token,
	)
	var (
		login      Login
		createdRaw string
		expiresRaw string
	)
	err := row.Scan(&login.Token, &login.UserID, &createdRaw, &expiresRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan login: %w", err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		login.CreatedAt = created
	}
	if expires, err := parseTimeString(expiresRaw); err == nil {
		login.ExpiresAt = expires
	}
	if time.Now().After(login.ExpiresAt) {
		_ = s.DeleteLogin(ctx, token)
		return nil, nil
	}
	return &login, nil
}

// DeleteLogin removes a session token.
func (s *Store) DeleteLogin(ctx context.Context, token string) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM logins WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete login: %w", err)
	}
	return nil
}

// PruneLogins removes all expired session tokens.
func (s *Store) PruneLogins(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM logins WHERE expires_at < ?`,
		timestamp(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("prune logins: %w", err)
	}
	return res.RowsAffected()
}
