package store_test

import (
	"context"
	"testing"

	"sprout/internal/store"
	"sprout/internal/testsupport"
)

func TestOpenAppliesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user := testsupport.NewUser(t, st, "alice")
	photo := testsupport.NewPhoto(t, st, user.ID, "photo-1")

	session, err := st.NewImport(ctx, user.ID, photo.ID)
	if err != nil {
		t.Fatalf("NewImport failed: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected session ID to be assigned")
	}
	if session.Status != store.StatusPending {
		t.Fatalf("expected pending status, got %s", session.Status)
	}

	fetched, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if fetched == nil || fetched.PhotoID != photo.ID {
		t.Fatalf("unexpected fetched session: %#v", fetched)
	}
}

func TestNewImportRequiresOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, err := st.NewImport(context.Background(), 0, "photo-1"); err == nil {
		t.Fatal("expected error when owner missing")
	}
}

func TestGetForOwnerScopesByOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	alice := testsupport.NewUser(t, st, "alice")
	bob := testsupport.NewUser(t, st, "bob")
	photo := testsupport.NewPhoto(t, st, alice.ID, "photo-1")
	session := testsupport.NewImport(t, st, alice.ID, photo.ID)

	fetched, err := st.GetForOwner(ctx, session.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if fetched != nil {
		t.Fatal("expected another user's lookup to behave like a missing session")
	}

	deleted, err := st.DeleteForOwner(ctx, session.ID, bob.ID)
	if err != nil {
		t.Fatalf("DeleteForOwner failed: %v", err)
	}
	if deleted {
		t.Fatal("expected another user's delete to behave like a missing session")
	}
}

func TestListForOwnerFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user := testsupport.NewUser(t, st, "alice")
	photoA := testsupport.NewPhoto(t, st, user.ID, "photo-a")
	photoB := testsupport.NewPhoto(t, st, user.ID, "photo-b")
	testsupport.NewImport(t, st, user.ID, photoA.ID)
	parked := testsupport.SessionAwaitingSelection(t, st, user.ID, photoB.ID, []store.Suggestion{
		{Species: "Monstera deliciosa"},
	})

	all, err := st.ListForOwner(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListForOwner failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}

	waiting, err := st.ListForOwner(ctx, user.ID, store.StatusNeedsSelection)
	if err != nil {
		t.Fatalf("ListForOwner with filter failed: %v", err)
	}
	if len(waiting) != 1 || waiting[0].ID != parked.ID {
		t.Fatalf("unexpected filtered sessions: %#v", waiting)
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	if _, ok := store.ParseStatus("sprouting"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	status, ok := store.ParseStatus("needs_selection")
	if !ok {
		t.Fatal("expected needs_selection to parse")
	}
	if status != store.StatusNeedsSelection {
		t.Fatalf("unexpected status %s", status)
	}
}

func TestSessionStatsGroupsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	user := testsupport.NewUser(t, st, "alice")
	photoA := testsupport.NewPhoto(t, st, user.ID, "photo-a")
	photoB := testsupport.NewPhoto(t, st, user.ID, "photo-b")
	testsupport.NewImport(t, st, user.ID, photoA.ID)
	testsupport.NewImport(t, st, user.ID, photoB.ID)

	stats, err := st.SessionStats(context.Background())
	if err != nil {
		t.Fatalf("SessionStats failed: %v", err)
	}
	if stats[store.StatusPending] != 2 {
		t.Fatalf("expected 2 pending sessions, got %d", stats[store.StatusPending])
	}
}
