package testsupport

import (
	"context"
	"testing"

	"sprout/internal/config"
	"sprout/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewUser creates an account for tests with a throwaway password hash.
func NewUser(t testing.TB, st *store.Store, username string) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), username, "$2a$04$testhashtesthashtesthash")
	if err != nil {
		t.Fatalf("store.CreateUser: %v", err)
	}
	return user
}

// NewPhoto records photo metadata for tests.
func NewPhoto(t testing.TB, st *store.Store, ownerID int64, id string) *store.Photo {
	t.Helper()

	photo := &store.Photo{
		ID:          id,
		OwnerID:     ownerID,
		Filename:    id + ".jpg",
		ContentType: "image/jpeg",
		SizeBytes:   64,
	}
	if err := st.CreatePhoto(context.Background(), photo); err != nil {
		t.Fatalf("store.CreatePhoto: %v", err)
	}
	return photo
}

// NewImport creates a pending import session for tests.
func NewImport(t testing.TB, st *store.Store, ownerID int64, photoID string) *store.Session {
	t.Helper()

	session, err := st.NewImport(context.Background(), ownerID, photoID)
	if err != nil {
		t.Fatalf("store.NewImport: %v", err)
	}
	return session
}

// SessionAwaitingSelection creates a session parked at needs_selection with
// the provided candidate list.
func SessionAwaitingSelection(t testing.TB, st *store.Store, ownerID int64, photoID string, suggestions []store.Suggestion) *store.Session {
	t.Helper()

	session := NewImport(t, st, ownerID, photoID)
	if err := session.SetSuggestions(suggestions); err != nil {
		t.Fatalf("set suggestions: %v", err)
	}
	if err := st.FinishIdentification(context.Background(), session, store.StatusNeedsSelection); err != nil {
		t.Fatalf("finish identification: %v", err)
	}
	refreshed, err := st.GetForOwner(context.Background(), session.ID, ownerID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	return refreshed
}
