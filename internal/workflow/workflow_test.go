package workflow

import (
	"context"
	"errors"
	"testing"

	"sprout/internal/identify"
	"sprout/internal/photos"
	"sprout/internal/store"
	"sprout/internal/testsupport"
)

type fakeEngine struct {
	identification *identify.Identification
	identifyErr    error
	care           *store.CareDetails
	researchErr    error
	identifyCalls  int
	researchCalls  int
}

func (f *fakeEngine) Identify(context.Context, []byte, string) (*identify.Identification, error) {
	f.identifyCalls++
	return f.identification, f.identifyErr
}

func (f *fakeEngine) Research(context.Context, string, string) (*store.CareDetails, error) {
	f.researchCalls++
	return f.care, f.researchErr
}

func (f *fakeEngine) Resume(context.Context, string, string, string, string) error { return nil }

func (f *fakeEngine) Close() error { return nil }

type harness struct {
	manager *Manager
	store   *store.Store
	engine  *fakeEngine
	user    *store.User
	session *store.Session
}

func newHarness(t *testing.T, engine *fakeEngine) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	library, err := photos.NewLibrary(cfg)
	if err != nil {
		t.Fatalf("photos.NewLibrary: %v", err)
	}

	user := testsupport.NewUser(t, st, "workflow-user")
	photoID := "photo-1"
	if _, err := library.Write(photoID, "image/jpeg", []byte("fake jpeg bytes")); err != nil {
		t.Fatalf("library.Write: %v", err)
	}
	photo := testsupport.NewPhoto(t, st, user.ID, photoID)
	session := testsupport.NewImport(t, st, user.ID, photo.ID)

	return &harness{
		manager: NewManager(st, engine, library, cfg, nil),
		store:   st,
		engine:  engine,
		user:    user,
		session: session,
	}
}

func (h *harness) reload(t *testing.T) *store.Session {
	t.Helper()
	session, err := h.store.GetForOwner(context.Background(), h.session.ID, h.user.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if session == nil {
		t.Fatal("session disappeared")
	}
	return session
}

func TestIdentifyStageConfidentMovesToResearching(t *testing.T) {
	engine := &fakeEngine{
		identification: &identify.Identification{
			Species:        "Swiss Cheese Plant",
			ScientificName: "Monstera deliciosa",
			Confidence:     0.95,
		},
	}
	h := newHarness(t, engine)

	if err := h.manager.processSession(context.Background(), h.session); err != nil {
		t.Fatalf("processSession failed: %v", err)
	}

	session := h.reload(t)
	if session.Status != store.StatusResearching {
		t.Fatalf("expected researching, got %s", session.Status)
	}
	if session.IdentifiedSpecies != "Swiss Cheese Plant" {
		t.Errorf("unexpected species %q", session.IdentifiedSpecies)
	}
	if session.Confidence == nil || *session.Confidence != 0.95 {
		t.Errorf("unexpected confidence %v", session.Confidence)
	}
	if session.LastHeartbeat != nil {
		t.Error("transition should clear the claim")
	}
}

func TestIdentifyStageAmbiguousParksForSelection(t *testing.T) {
	engine := &fakeEngine{
		identification: &identify.Identification{
			Suggestions: []store.Suggestion{
				{Species: "Monstera deliciosa", Confidence: 0.5},
				{Species: "Monstera adansonii", Confidence: 0.4},
			},
		},
	}
	h := newHarness(t, engine)

	if err := h.manager.processSession(context.Background(), h.session); err != nil {
		t.Fatalf("processSession failed: %v", err)
	}

	session := h.reload(t)
	if session.Status != store.StatusNeedsSelection {
		t.Fatalf("expected needs_selection, got %s", session.Status)
	}
	suggestions, err := session.Suggestions()
	if err != nil {
		t.Fatalf("decode suggestions: %v", err)
	}
	if len(suggestions) != 2 || suggestions[0].Species != "Monstera deliciosa" {
		t.Fatalf("unexpected suggestions %+v", suggestions)
	}
	if session.IdentifiedSpecies != "" {
		t.Errorf("ambiguous result must not set a species, got %q", session.IdentifiedSpecies)
	}
}

func TestIdentifyStageEngineErrorFailsSession(t *testing.T) {
	engine := &fakeEngine{identifyErr: errors.New("vision model unavailable")}
	h := newHarness(t, engine)

	if err := h.manager.processSession(context.Background(), h.session); err != nil {
		t.Fatalf("processSession failed: %v", err)
	}

	session := h.reload(t)
	if session.Status != store.StatusFailed {
		t.Fatalf("expected failed, got %s", session.Status)
	}
	if session.ErrorMessage == "" {
		t.Error("failed session should carry an error message")
	}
}

func TestResearchStageCompletesSession(t *testing.T) {
	engine := &fakeEngine{
		care: &store.CareDetails{
			WateringIntervalDays:    7,
			FertilizingIntervalDays: 30,
			Light:                   "bright indirect",
		},
	}
	h := newHarness(t, engine)

	ctx := context.Background()
	if err := h.store.CommitSelection(ctx, h.session.ID, h.user.ID, "Monstera Deliciosa", "Monstera deliciosa"); err == nil {
		t.Fatal("pending session must not accept a selection")
	}
	h.session.IdentifiedSpecies = "Monstera Deliciosa"
	h.session.ScientificName = "Monstera deliciosa"
	if err := h.store.FinishIdentification(ctx, h.session, store.StatusResearching); err != nil {
		t.Fatalf("move to researching: %v", err)
	}
	h.session = h.reload(t)

	if err := h.manager.processSession(ctx, h.session); err != nil {
		t.Fatalf("processSession failed: %v", err)
	}

	session := h.reload(t)
	if session.Status != store.StatusComplete {
		t.Fatalf("expected complete, got %s", session.Status)
	}
	care, err := session.Care()
	if err != nil {
		t.Fatalf("decode care: %v", err)
	}
	if care == nil || care.WateringIntervalDays != 7 {
		t.Fatalf("unexpected care %+v", care)
	}
	if engine.researchCalls != 1 {
		t.Fatalf("expected one research call, got %d", engine.researchCalls)
	}
}

func TestResearchStageErrorReleasesClaim(t *testing.T) {
	engine := &fakeEngine{researchErr: errors.New("care model unavailable")}
	h := newHarness(t, engine)

	ctx := context.Background()
	h.session.IdentifiedSpecies = "Monstera Deliciosa"
	if err := h.store.FinishIdentification(ctx, h.session, store.StatusResearching); err != nil {
		t.Fatalf("move to researching: %v", err)
	}
	h.session = h.reload(t)

	if err := h.manager.processSession(ctx, h.session); err != nil {
		t.Fatalf("processSession failed: %v", err)
	}

	session := h.reload(t)
	if session.Status != store.StatusFailed {
		t.Fatalf("expected failed, got %s", session.Status)
	}
	if session.LastHeartbeat != nil {
		t.Error("failed session should not keep a claim")
	}
}

func TestManagerStartStop(t *testing.T) {
	engine := &fakeEngine{
		identification: &identify.Identification{
			Species:    "Ficus lyrata",
			Confidence: 0.99,
		},
		care: &store.CareDetails{WateringIntervalDays: 10},
	}
	h := newHarness(t, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !h.manager.Running() {
		t.Fatal("manager should report running")
	}
	if err := h.manager.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}

	h.manager.Stop()
	if h.manager.Running() {
		t.Fatal("manager should stop")
	}
}
