package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sprout/internal/store"
	"sprout/internal/testsupport"
)

func TestCommitSelectionMovesToResearching(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user := testsupport.NewUser(t, st, "alice")
	photo := testsupport.NewPhoto(t, st, user.ID, "photo-1")
	session := testsupport.SessionAwaitingSelection(t, st, user.ID, photo.ID, []store.Suggestion{
		{Species: "Monstera deliciosa"},
		{Species: "Monstera adansonii"},
	})
	previousUpdated := session.UpdatedAt

	if err := st.CommitSelection(ctx, session.ID, user.ID, "Monstera Deliciosa", "Monstera deliciosa"); err != nil {
		t.Fatalf("CommitSelection failed: %v", err)
	}

	committed, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if committed.Status != store.StatusResearching {
		t.Fatalf("expected researching, got %s", committed.Status)
	}
	if committed.IdentifiedSpecies != "Monstera Deliciosa" {
		t.Fatalf("unexpected species %q", committed.IdentifiedSpecies)
	}
	if committed.ScientificName != "Monstera deliciosa" {
		t.Fatalf("unexpected scientific name %q", committed.ScientificName)
	}
	if committed.Confidence == nil || *committed.Confidence != store.UserConfirmedConfidence {
		t.Fatalf("expected confidence %v, got %v", store.UserConfirmedConfidence, committed.Confidence)
	}
	if committed.SuggestionsJSON != "" {
		t.Fatalf("expected suggestions cleared, got %q", committed.SuggestionsJSON)
	}
	if committed.UpdatedAt.Before(previousUpdated) {
		t.Fatalf("expected updated_at to advance: %v -> %v", previousUpdated, committed.UpdatedAt)
	}
}

func TestCommitSelectionRequiresAwaitingState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user := testsupport.NewUser(t, st, "alice")
	photo := testsupport.NewPhoto(t, st, user.ID, "photo-1")
	session := testsupport.NewImport(t, st, user.ID, photo.ID)

	err := st.CommitSelection(ctx, session.ID, user.ID, "Monstera deliciosa", "Monstera deliciosa")
	if !errors.Is(err, store.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}

	unchanged, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if unchanged.Status != store.StatusPending || unchanged.IdentifiedSpecies != "" {
		t.Fatalf("expected session untouched, got %#v", unchanged)
	}
}

func TestCommitSelectionExactlyOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user := testsupport.NewUser(t, st, "alice")
	photo := testsupport.NewPhoto(t, st, user.ID, "photo-1")
	session := testsupport.SessionAwaitingSelection(t, st, user.ID, photo.ID, []store.Suggestion{
		{Species: "Monstera deliciosa"},
	})

	if err := st.CommitSelection(ctx, session.ID, user.ID, "Monstera deliciosa", "Monstera deliciosa"); err != nil {
		t.Fatalf("first CommitSelection failed: %v", err)
	}
	err := st.CommitSelection(ctx, session.ID, user.ID, "Monstera adansonii", "Monstera adansonii")
	if !errors.Is(err, store.ErrStateConflict) {
		t.Fatalf("expected second commit to lose, got %v", err)
	}

	committed, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if committed.IdentifiedSpecies != "Monstera deliciosa" {
		t.Fatalf("expected first commit to stick, got %q", committed.IdentifiedSpecies)
	}
}

func TestFinishIdentificationOutcomes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user := testsupport.NewUser(t, st, "alice")
	photo := testsupport.NewPhoto(t, st, user.ID, "photo-1")
	session := testsupport.NewImport(t, st, user.ID, photo.ID)

	confidence := 0.93
	session.IdentifiedSpecies = "Ficus lyrata"
	session.ScientificName = "Ficus lyrata"
	session.Confidence = &confidence
	if err := st.FinishIdentification(ctx, session, store.StatusResearching); err != nil {
		t.Fatalf("FinishIdentification failed: %v", err)
	}

	moved, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if moved.Status != store.StatusResearching {
		t.Fatalf("expected researching, got %s", moved.Status)
	}

	// The pending guard means a second finish is a no-op conflict.
	err = st.FinishIdentification(ctx, session, store.StatusNeedsSelection)
	if !errors.Is(err, store.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}

	if err := st.FinishIdentification(ctx, session, store.StatusComplete); err == nil {
		t.Fatal("expected invalid outcome error")
	}
}

func TestCompleteResearchStoresCare(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user := testsupport.NewUser(t, st, "alice")
	photo := testsupport.NewPhoto(t, st, user.ID, "photo-1")
	session := testsupport.SessionAwaitingSelection(t, st, user.ID, photo.ID, []store.Suggestion{
		{Species: "Monstera deliciosa"},
	})
	if err := st.CommitSelection(ctx, session.ID, user.ID, "Monstera deliciosa", "Monstera deliciosa"); err != nil {
		t.Fatalf("CommitSelection failed: %v", err)
	}

	care := &store.CareDetails{WateringIntervalDays: 7, FertilizingIntervalDays: 30, Light: "bright indirect"}
	if err := session.SetCare(care); err != nil {
		t.Fatalf("SetCare failed: %v", err)
	}
	if err := st.CompleteResearch(ctx, session.ID, session.CareJSON); err != nil {
		t.Fatalf("CompleteResearch failed: %v", err)
	}

	done, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if done.Status != store.StatusComplete {
		t.Fatalf("expected complete, got %s", done.Status)
	}
	stored, err := done.Care()
	if err != nil {
		t.Fatalf("Care failed: %v", err)
	}
	if stored == nil || stored.WateringIntervalDays != 7 {
		t.Fatalf("unexpected care details: %#v", stored)
	}
}

func TestFailSessionGuardsOnStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user := testsupport.NewUser(t, st, "alice")
	photo := testsupport.NewPhoto(t, st, user.ID, "photo-1")
	session := testsupport.NewImport(t, st, user.ID, photo.ID)

	if err := st.FailSession(ctx, session.ID, store.StatusPending, "identification failed"); err != nil {
		t.Fatalf("FailSession failed: %v", err)
	}

	failed, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if failed.Status != store.StatusFailed || failed.ErrorMessage != "identification failed" {
		t.Fatalf("unexpected failed session: %#v", failed)
	}

	err = st.FailSession(ctx, session.ID, store.StatusPending, "again")
	if !errors.Is(err, store.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
}

func TestClaimHeartbeatAndReclaim(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user := testsupport.NewUser(t, st, "alice")
	photo := testsupport.NewPhoto(t, st, user.ID, "photo-1")
	session := testsupport.NewImport(t, st, user.ID, photo.ID)

	claimed, err := st.ClaimSession(ctx, session.ID, store.StatusPending)
	if err != nil {
		t.Fatalf("ClaimSession failed: %v", err)
	}
	if !claimed {
		t.Fatal("expected claim to succeed")
	}

	again, err := st.ClaimSession(ctx, session.ID, store.StatusPending)
	if err != nil {
		t.Fatalf("second ClaimSession failed: %v", err)
	}
	if again {
		t.Fatal("expected second claim to lose")
	}

	next, err := st.NextForStatuses(ctx, store.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next != nil {
		t.Fatal("claimed session should not be pollable")
	}

	if err := st.HeartbeatSession(ctx, session.ID); err != nil {
		t.Fatalf("HeartbeatSession failed: %v", err)
	}

	reclaimed, err := st.ReclaimStale(ctx, time.Nanosecond)
	if err != nil {
		t.Fatalf("ReclaimStale failed: %v", err)
	}
	if len(reclaimed) != 1 || reclaimed[0] != session.ID {
		t.Fatalf("expected session reclaimed, got %v", reclaimed)
	}

	next, err = st.NextForStatuses(ctx, store.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses after reclaim failed: %v", err)
	}
	if next == nil || next.ID != session.ID {
		t.Fatal("expected reclaimed session to be pollable again")
	}
}
