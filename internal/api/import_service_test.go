package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"sprout/internal/api"
	"sprout/internal/auth"
	"sprout/internal/store"
	"sprout/internal/testsupport"
)

type triggerCall struct {
	sessionID      string
	species        string
	scientificName string
	token          string
}

type fakeTrigger struct {
	calls []triggerCall
	err   error
}

func (f *fakeTrigger) Resume(_ context.Context, sessionID, species, scientificName, authToken string) error {
	f.calls = append(f.calls, triggerCall{
		sessionID:      sessionID,
		species:        species,
		scientificName: scientificName,
		token:          authToken,
	})
	return f.err
}

func newSelectFixture(t *testing.T) (*store.Store, *store.User, *store.Session, *fakeTrigger, *api.ImportService) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	user := testsupport.NewUser(t, st, "alice")
	photo := testsupport.NewPhoto(t, st, user.ID, "photo-1")
	session := testsupport.SessionAwaitingSelection(t, st, user.ID, photo.ID, []store.Suggestion{
		{Species: "Monstera deliciosa"},
		{Species: "Monstera adansonii"},
	})
	trigger := &fakeTrigger{}
	service := api.NewImportService(st, trigger, nil)
	return st, user, session, trigger, service
}

func caller(user *store.User) *auth.Context {
	return &auth.Context{UserID: user.ID, Username: user.Username, Token: "token-1"}
}

func TestSelectCommitsAndTriggersOnce(t *testing.T) {
	st, user, session, trigger, service := newSelectFixture(t)
	ctx := context.Background()

	resp, err := service.Select(ctx, caller(user), session.ID, api.SelectRequest{
		Species:        "Monstera Deliciosa",
		ScientificName: "Monstera deliciosa",
	})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success acknowledgment")
	}

	committed, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if committed.Status != store.StatusResearching {
		t.Fatalf("expected researching, got %s", committed.Status)
	}
	if committed.IdentifiedSpecies != "Monstera Deliciosa" {
		t.Fatalf("species not preserved as submitted: %q", committed.IdentifiedSpecies)
	}
	if committed.Confidence == nil || *committed.Confidence != 0.7 {
		t.Fatalf("expected confidence 0.7, got %v", committed.Confidence)
	}
	if committed.SuggestionsJSON != "" {
		t.Fatal("expected suggestions cleared")
	}

	if len(trigger.calls) != 1 {
		t.Fatalf("expected exactly one continuation call, got %d", len(trigger.calls))
	}
	call := trigger.calls[0]
	if call.sessionID != session.ID || call.species != "Monstera Deliciosa" || call.scientificName != "Monstera deliciosa" {
		t.Fatalf("unexpected continuation call: %#v", call)
	}
	if call.token != "token-1" {
		t.Fatalf("expected caller token forwarded, got %q", call.token)
	}
}

func TestSelectValidatesBeforeStore(t *testing.T) {
	_, user, session, trigger, service := newSelectFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  api.SelectRequest
	}{
		{"missing species", api.SelectRequest{ScientificName: "Monstera deliciosa"}},
		{"missing scientific name", api.SelectRequest{Species: "Monstera deliciosa"}},
		{"blank species", api.SelectRequest{Species: "   ", ScientificName: "Monstera deliciosa"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Select(ctx, caller(user), session.ID, tc.req)
			apiErr := api.AsError(err)
			if apiErr.Kind != api.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if apiErr.HTTPStatus() != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", apiErr.HTTPStatus())
			}
		})
	}
	if len(trigger.calls) != 0 {
		t.Fatal("validation failures must not trigger the engine")
	}
}

func TestSelectUnknownSessionIsNotFound(t *testing.T) {
	_, user, _, _, service := newSelectFixture(t)

	_, err := service.Select(context.Background(), caller(user), "no-such-session", api.SelectRequest{
		Species:        "Monstera deliciosa",
		ScientificName: "Monstera deliciosa",
	})
	apiErr := api.AsError(err)
	if apiErr.Kind != api.KindNotFound || apiErr.HTTPStatus() != http.StatusNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestSelectOtherUsersSessionLooksMissing(t *testing.T) {
	st, _, session, _, service := newSelectFixture(t)
	intruder := testsupport.NewUser(t, st, "mallory")

	_, err := service.Select(context.Background(), caller(intruder), session.ID, api.SelectRequest{
		Species:        "Monstera deliciosa",
		ScientificName: "Monstera deliciosa",
	})
	apiErr := api.AsError(err)
	if apiErr.Kind != api.KindNotFound {
		t.Fatalf("expected indistinguishable not-found, got %v", err)
	}
	if apiErr.Message != "session not found" {
		t.Fatalf("message must not reveal existence: %q", apiErr.Message)
	}
}

func TestSelectRejectsWrongState(t *testing.T) {
	st, user, session, trigger, service := newSelectFixture(t)
	ctx := context.Background()

	req := api.SelectRequest{Species: "Monstera deliciosa", ScientificName: "Monstera deliciosa"}
	if _, err := service.Select(ctx, caller(user), session.ID, req); err != nil {
		t.Fatalf("first Select failed: %v", err)
	}

	_, err := service.Select(ctx, caller(user), session.ID, api.SelectRequest{
		Species:        "Monstera adansonii",
		ScientificName: "Monstera adansonii",
	})
	apiErr := api.AsError(err)
	if apiErr.Kind != api.KindConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if apiErr.Message != "session is not awaiting selection" {
		t.Fatalf("unexpected conflict message %q", apiErr.Message)
	}
	if apiErr.HTTPStatus() != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", apiErr.HTTPStatus())
	}

	unchanged, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if unchanged.IdentifiedSpecies != "Monstera deliciosa" {
		t.Fatalf("second select must not change fields, got %q", unchanged.IdentifiedSpecies)
	}
	if len(trigger.calls) != 1 {
		t.Fatalf("expected one continuation call total, got %d", len(trigger.calls))
	}
}

func TestSelectTriggerFailureLeavesResearching(t *testing.T) {
	st, user, session, trigger, service := newSelectFixture(t)
	trigger.err = errors.New("engine unavailable")
	ctx := context.Background()

	_, err := service.Select(ctx, caller(user), session.ID, api.SelectRequest{
		Species:        "Monstera Deliciosa",
		ScientificName: "Monstera deliciosa",
	})
	apiErr := api.AsError(err)
	if apiErr.Kind != api.KindDownstream || apiErr.HTTPStatus() != http.StatusInternalServerError {
		t.Fatalf("expected downstream 500, got %v", err)
	}

	committed, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if committed.Status != store.StatusResearching {
		t.Fatalf("commit must survive trigger failure, got %s", committed.Status)
	}
	if committed.IdentifiedSpecies != "Monstera Deliciosa" {
		t.Fatalf("expected committed fields retained, got %q", committed.IdentifiedSpecies)
	}
}

func TestSelectForNonNeedsSelectionStatuses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	user := testsupport.NewUser(t, st, "alice")
	service := api.NewImportService(st, &fakeTrigger{}, nil)
	ctx := context.Background()

	photo := testsupport.NewPhoto(t, st, user.ID, "photo-pending")
	pending := testsupport.NewImport(t, st, user.ID, photo.ID)

	failedPhoto := testsupport.NewPhoto(t, st, user.ID, "photo-failed")
	failed := testsupport.NewImport(t, st, user.ID, failedPhoto.ID)
	if err := st.FailSession(ctx, failed.ID, store.StatusPending, "boom"); err != nil {
		t.Fatalf("FailSession failed: %v", err)
	}

	req := api.SelectRequest{Species: "Monstera deliciosa", ScientificName: "Monstera deliciosa"}
	for _, session := range []*store.Session{pending, failed} {
		_, err := service.Select(ctx, caller(user), session.ID, req)
		apiErr := api.AsError(err)
		if apiErr.Kind != api.KindConflict {
			t.Fatalf("expected conflict for %s session, got %v", session.Status, err)
		}
		after, err := st.GetForOwner(ctx, session.ID, user.ID)
		if err != nil {
			t.Fatalf("GetForOwner failed: %v", err)
		}
		if after.IdentifiedSpecies != "" && after.IdentifiedSpecies != session.IdentifiedSpecies {
			t.Fatalf("fields must be unchanged for %s", session.Status)
		}
	}
}

func TestImportPlantFromCompleteSession(t *testing.T) {
	st, user, session, _, service := newSelectFixture(t)
	ctx := context.Background()

	if _, err := service.Select(ctx, caller(user), session.ID, api.SelectRequest{
		Species:        "Monstera deliciosa",
		ScientificName: "Monstera deliciosa",
	}); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	reloaded, err := st.GetForOwner(ctx, session.ID, user.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if err := reloaded.SetCare(&store.CareDetails{WateringIntervalDays: 7, FertilizingIntervalDays: 30}); err != nil {
		t.Fatalf("SetCare failed: %v", err)
	}
	if err := st.CompleteResearch(ctx, reloaded.ID, reloaded.CareJSON); err != nil {
		t.Fatalf("CompleteResearch failed: %v", err)
	}

	plant, err := service.ImportPlant(ctx, caller(user), session.ID, "")
	if err != nil {
		t.Fatalf("ImportPlant failed: %v", err)
	}
	if plant.Name != "Monstera deliciosa" || plant.WateringIntervalDays != 7 {
		t.Fatalf("unexpected imported plant: %#v", plant)
	}
}

func TestImportPlantRequiresCompleteSession(t *testing.T) {
	_, user, session, _, service := newSelectFixture(t)

	_, err := service.ImportPlant(context.Background(), caller(user), session.ID, "My Monstera")
	apiErr := api.AsError(err)
	if apiErr.Kind != api.KindConflict {
		t.Fatalf("expected conflict for incomplete session, got %v", err)
	}
}
