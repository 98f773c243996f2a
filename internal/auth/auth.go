// Package auth handles account registration and token-based login sessions.
// Passwords are stored as bcrypt hashes; tokens are random UUIDs resolved
// against the logins table on every request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sprout/internal/config"
	"sprout/internal/store"
)

// Authn wraps the credential and token operations the API server needs.
type Authn struct {
	store      *store.Store
	ttl        time.Duration
	bcryptCost int
	open       bool
}

// Context identifies the authenticated caller on a request.
type Context struct {
	UserID   int64
	Username string
	Token    string
}

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so login failures do not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrRegistrationClosed is returned when self-registration is disabled.
	ErrRegistrationClosed = errors.New("registration is closed")
)

func New(st *store.Store, cfg *config.Config) *Authn {
	return &Authn{
		store:      st,
		ttl:        time.Duration(cfg.Auth.SessionTTLHours) * time.Hour,
		bcryptCost: cfg.Auth.BcryptCost,
		open:       cfg.Auth.RegistrationOpen,
	}
}

// Register creates a new account. Usernames are trimmed and must be 3-64
// characters; passwords at least 8.
func (a *Authn) Register(ctx context.Context, username, password string) (*store.User, error) {
	if !a.open {
		return nil, ErrRegistrationClosed
	}
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 64 {
		return nil, errors.New("username must be between 3 and 64 characters")
	}
	if utf8.RuneCountInString(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return a.store.CreateUser(ctx, username, string(hash))
}

// Login verifies credentials and issues a session token.
func (a *Authn) Login(ctx context.Context, username, password string) (string, *store.User, error) {
	user, err := a.store.GetUserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if _, err := a.store.CreateLogin(ctx, token, user.ID, a.ttl); err != nil {
		return "", nil, fmt.Errorf("create login: %w", err)
	}
	return token, user, nil
}

// Logout invalidates a session token. Unknown tokens are not an error.
func (a *Authn) Logout(ctx context.Context, token string) error {
	return a.store.DeleteLogin(ctx, token)
}

// Resolve maps a bearer token to the authenticated user. Returns nil for
// unknown or expired tokens.
func (a *Authn) Resolve(ctx context.Context, token string) (*Context, error) {
	if token == "" {
		return nil, nil
	}
	login, err := a.store.GetLogin(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if login == nil {
		return nil, nil
	}
	user, err := a.store.GetUser(ctx, login.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	return &Context{UserID: user.ID, Username: user.Username, Token: token}, nil
}
