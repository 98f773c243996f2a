package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sprout/internal/auth"
	"sprout/internal/config"
	"sprout/internal/store"
	"sprout/internal/testsupport"
)

func newAuthn(t *testing.T, mutate func(cfg *config.Config)) (*auth.Authn, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	st := testsupport.MustOpenStore(t, cfg)
	return auth.New(st, cfg), st
}

func TestRegisterAndLogin(t *testing.T) {
	authn, _ := newAuthn(t, nil)
	ctx := context.Background()

	user, err := authn.Register(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected username %q", user.Username)
	}

	token, loggedIn, err := authn.Login(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" || loggedIn.ID != user.ID {
		t.Fatalf("unexpected login result token=%q user=%+v", token, loggedIn)
	}

	caller, err := authn.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if caller == nil || caller.UserID != user.ID || caller.Token != token {
		t.Fatalf("unexpected caller %+v", caller)
	}
}

func TestRegisterValidatesInputs(t *testing.T) {
	authn, _ := newAuthn(t, nil)
	ctx := context.Background()

	if _, err := authn.Register(ctx, "al", "long enough password"); err == nil {
		t.Error("short username should be rejected")
	}
	if _, err := authn.Register(ctx, "alice", "short"); err == nil {
		t.Error("short password should be rejected")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	authn, _ := newAuthn(t, nil)
	ctx := context.Background()

	if _, err := authn.Register(ctx, "alice", "correct horse"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, err := authn.Register(ctx, "alice", "another password")
	if !errors.Is(err, store.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterClosedRegistration(t *testing.T) {
	authn, _ := newAuthn(t, func(cfg *config.Config) {
		cfg.Auth.RegistrationOpen = false
	})
	_, err := authn.Register(context.Background(), "alice", "correct horse")
	if !errors.Is(err, auth.ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	authn, _ := newAuthn(t, nil)
	ctx := context.Background()

	if _, err := authn.Register(ctx, "alice", "correct horse"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := authn.Login(ctx, "alice", "wrong password"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := authn.Login(ctx, "nobody", "correct horse"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	authn, _ := newAuthn(t, nil)
	ctx := context.Background()

	if _, err := authn.Register(ctx, "alice", "correct horse"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token, _, err := authn.Login(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := authn.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	caller, err := authn.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if caller != nil {
		t.Fatal("logged-out token should not resolve")
	}
}

func TestResolveExpiredToken(t *testing.T) {
	authn, st := newAuthn(t, nil)
	ctx := context.Background()

	user, err := authn.Register(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := st.CreateLogin(ctx, "stale-token", user.ID, -time.Hour); err != nil {
		t.Fatalf("CreateLogin failed: %v", err)
	}

	caller, err := authn.Resolve(ctx, "stale-token")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if caller != nil {
		t.Fatal("expired token should not resolve")
	}
}
