package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sprout/internal/auth"
	"sprout/internal/logging"
	"sprout/internal/store"
)

// EngineTrigger is the continuation hook into the identification engine. The
// selection commit calls it after the store transition succeeds; the caller's
// token is forwarded so a remote engine can act on the user's behalf.
type EngineTrigger interface {
	Resume(ctx context.Context, sessionID, species, scientificName, authToken string) error
}

// ImportService owns the import-session workflow's API surface.
type ImportService struct {
	store  *store.Store
	engine EngineTrigger
	logger *slog.Logger
}

func NewImportService(st *store.Store, engine EngineTrigger, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ImportService{store: st, engine: engine, logger: logger}
}

// Create starts a new import session in the pending state from an uploaded
// photo.
func (s *ImportService) Create(ctx context.Context, caller *auth.Context, photoID string) (*SessionView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	if strings.TrimSpace(photoID) == "" {
		return nil, ValidationError("photoId is required")
	}
	photo, err := s.store.GetPhotoForOwner(ctx, photoID, caller.UserID)
	if err != nil {
		return nil, InternalError("load photo", err)
	}
	if photo == nil {
		return nil, NotFoundError("photo not found")
	}

	session, err := s.store.NewImport(ctx, caller.UserID, photoID)
	if err != nil {
		return nil, InternalError("create import session", err)
	}
	s.logger.Info("import session created",
		logging.String(logging.FieldSessionID, session.ID),
		logging.Int64(logging.FieldUserID, caller.UserID))
	return NewSessionView(session), nil
}

// Get returns a session scoped to the caller.
func (s *ImportService) Get(ctx context.Context, caller *auth.Context, id string) (*SessionView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	session, err := s.store.GetForOwner(ctx, id, caller.UserID)
	if err != nil {
		return nil, InternalError("load import session", err)
	}
	if session == nil {
		return nil, NotFoundError("session not found")
	}
	return NewSessionView(session), nil
}

// List returns the caller's sessions, optionally filtered by status.
func (s *ImportService) List(ctx context.Context, caller *auth.Context, statusFilter string) ([]*SessionView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	var statuses []store.Status
	if statusFilter != "" {
		status, ok := store.ParseStatus(statusFilter)
		if !ok {
			return nil, ValidationError(fmt.Sprintf("unknown status %q", statusFilter))
		}
		statuses = append(statuses, status)
	}
	sessions, err := s.store.ListForOwner(ctx, caller.UserID, statuses...)
	if err != nil {
		return nil, InternalError("list import sessions", err)
	}
	views := make([]*SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, NewSessionView(session))
	}
	return views, nil
}

// Delete removes a session scoped to the caller.
func (s *ImportService) Delete(ctx context.Context, caller *auth.Context, id string) error {
	if caller == nil {
		return AuthError("authentication required")
	}
	deleted, err := s.store.DeleteForOwner(ctx, id, caller.UserID)
	if err != nil {
		return InternalError("delete import session", err)
	}
	if !deleted {
		return NotFoundError("session not found")
	}
	return nil
}

// Select commits the user's species choice on a session awaiting selection.
//
// Preconditions run in a fixed order: field validation before any store
// access, then existence under the caller's ownership, then the status
// guard. The commit itself is a single conditional update keyed on
// needs_selection, so a concurrent double submit resolves to one winner.
// The engine continuation fires only after the commit; if it fails the
// session stays in researching and the caller sees a downstream error.
func (s *ImportService) Select(ctx context.Context, caller *auth.Context, id string, req SelectRequest) (*SelectResponse, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	species := strings.TrimSpace(req.Species)
	scientificName := strings.TrimSpace(req.ScientificName)
	if species == "" {
		return nil, ValidationError("species is required")
	}
	if scientificName == "" {
		return nil, ValidationError("scientificName is required")
	}

	session, err := s.store.GetForOwner(ctx, id, caller.UserID)
	if err != nil {
		return nil, InternalError("load import session", err)
	}
	if session == nil {
		return nil, NotFoundError("session not found")
	}
	if session.Status != store.StatusNeedsSelection {
		return nil, ConflictError("session is not awaiting selection")
	}

	err = s.store.CommitSelection(ctx, id, caller.UserID, species, scientificName)
	if errors.Is(err, store.ErrStateConflict) {
		// Lost the race to a concurrent submit.
		return nil, ConflictError("session is not awaiting selection")
	}
	if err != nil {
		return nil, InternalError("commit selection", err)
	}

	s.logger.Info("selection committed",
		logging.String(logging.FieldSessionID, id),
		logging.Int64(logging.FieldUserID, caller.UserID),
		logging.String("species", species))

	if err := s.engine.Resume(ctx, id, species, scientificName, caller.Token); err != nil {
		s.logger.Error("engine continuation failed",
			logging.String(logging.FieldSessionID, id),
			logging.Error(err))
		return nil, DownstreamError("identification engine continuation failed", err)
	}

	session, err = s.store.GetForOwner(ctx, id, caller.UserID)
	if err != nil {
		return nil, InternalError("reload import session", err)
	}
	resp := &SelectResponse{Success: true}
	if session != nil {
		resp.Session = NewSessionView(session)
	}
	return resp, nil
}

// ImportPlant turns a completed session into a plant catalog entry.
func (s *ImportService) ImportPlant(ctx context.Context, caller *auth.Context, id, name string) (*PlantView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	session, err := s.store.GetForOwner(ctx, id, caller.UserID)
	if err != nil {
		return nil, InternalError("load import session", err)
	}
	if session == nil {
		return nil, NotFoundError("session not found")
	}
	if session.Status != store.StatusComplete {
		return nil, ConflictError("session is not complete")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = session.IdentifiedSpecies
	}
	plant := &store.Plant{
		OwnerID:        caller.UserID,
		Name:           name,
		Species:        session.IdentifiedSpecies,
		ScientificName: session.ScientificName,
	}
	if care, err := session.Care(); err == nil && care != nil {
		plant.WateringIntervalDays = care.WateringIntervalDays
		plant.FertilizingIntervalDays = care.FertilizingIntervalDays
		plant.Light = care.Light
		plant.Notes = care.Notes
	}
	plant, err = s.store.CreatePlant(ctx, plant)
	if err != nil {
		return nil, InternalError("create plant", err)
	}
	if session.PhotoID != "" {
		if _, err := s.store.AttachPhotoToPlant(ctx, session.PhotoID, plant.ID, caller.UserID); err != nil {
			s.logger.Warn("attach session photo failed",
				logging.String(logging.FieldSessionID, id),
				logging.Error(err))
		}
	}
	s.logger.Info("plant imported from session",
		logging.String(logging.FieldSessionID, id),
		logging.Int64("plant_id", plant.ID))
	return NewPlantView(plant), nil
}
