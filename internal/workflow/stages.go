package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"sprout/internal/logging"
	"sprout/internal/store"
)

// processSession claims a session, runs the stage for its status, and
// releases the claim. CAS guards on every transition mean a stage losing a
// race simply moves on.
func (m *Manager) processSession(ctx context.Context, session *store.Session) error {
	claimed, err := m.store.ClaimSession(ctx, session.ID, session.Status)
	if err != nil {
		return fmt.Errorf("claim session: %w", err)
	}
	if !claimed {
		return nil
	}

	logger := m.logger.With(
		logging.String(logging.FieldSessionID, session.ID),
		logging.String(logging.FieldStage, string(session.Status)),
	)

	hbCtx, cancelHeartbeat := context.WithCancel(ctx)
	var hbWg sync.WaitGroup
	hbWg.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWg, session.ID)
	defer func() {
		cancelHeartbeat()
		hbWg.Wait()
	}()

	var stageErr error
	switch session.Status {
	case store.StatusPending:
		stageErr = m.identifyStage(ctx, logger, session)
	case store.StatusResearching:
		stageErr = m.researchStage(ctx, logger, session)
	default:
		stageErr = m.store.ReleaseSession(ctx, session.ID)
	}

	if stageErr != nil && !errors.Is(stageErr, context.Canceled) {
		// Leave the session pollable again; the transition that would
		// have cleared the claim never ran.
		if releaseErr := m.store.ReleaseSession(ctx, session.ID); releaseErr != nil {
			logger.Warn("release claim failed", logging.Error(releaseErr))
		}
	}
	return stageErr
}

// identifyStage runs the photo through the engine and routes the session to
// researching, needs_selection or failed.
func (m *Manager) identifyStage(ctx context.Context, logger *slog.Logger, session *store.Session) error {
	photo, err := m.store.GetPhotoForOwner(ctx, session.PhotoID, session.OwnerID)
	if err != nil {
		return fmt.Errorf("load photo metadata: %w", err)
	}
	if photo == nil {
		return m.failSession(ctx, session, "photo no longer exists")
	}
	blob, err := m.library.Read(photo.Filename)
	if err != nil {
		return m.failSession(ctx, session, "photo could not be read")
	}

	result, err := m.engine.Identify(ctx, blob, photo.ContentType)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("identification failed", logging.Error(err))
		return m.failSession(ctx, session, fmt.Sprintf("identification failed: %v", err))
	}

	if result.Confident(m.cfg.Engine.ConfidenceThreshold) {
		session.IdentifiedSpecies = result.Species
		session.ScientificName = result.ScientificName
		confidence := result.Confidence
		session.Confidence = &confidence
		session.SuggestionsJSON = ""
		if err := m.applyTransition(ctx, session, store.StatusResearching); err != nil {
			return err
		}
		logger.Info("species identified",
			logging.String("species", result.Species),
			logging.Float64("confidence", result.Confidence))
		return nil
	}

	session.IdentifiedSpecies = ""
	session.ScientificName = ""
	session.Confidence = nil
	if err := session.SetSuggestions(result.Suggestions); err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}
	if err := m.applyTransition(ctx, session, store.StatusNeedsSelection); err != nil {
		return err
	}
	logger.Info("identification ambiguous, awaiting selection",
		logging.Int("candidates", len(result.Suggestions)))
	return nil
}

// researchStage fetches care details for the identified species and
// completes the session.
func (m *Manager) researchStage(ctx context.Context, logger *slog.Logger, session *store.Session) error {
	if session.IdentifiedSpecies == "" {
		return m.failSession(ctx, session, "no species to research")
	}

	care, err := m.engine.Research(ctx, session.IdentifiedSpecies, session.ScientificName)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("care research failed", logging.Error(err))
		return m.failSession(ctx, session, fmt.Sprintf("care research failed: %v", err))
	}

	if err := session.SetCare(care); err != nil {
		return err
	}
	if err := m.store.CompleteResearch(ctx, session.ID, session.CareJSON); err != nil {
		if errors.Is(err, store.ErrStateConflict) {
			return nil
		}
		return fmt.Errorf("complete research: %w", err)
	}
	logger.Info("session complete", logging.String("species", session.IdentifiedSpecies))
	return nil
}

func (m *Manager) applyTransition(ctx context.Context, session *store.Session, next store.Status) error {
	err := m.store.FinishIdentification(ctx, session, next)
	if errors.Is(err, store.ErrStateConflict) {
		return nil
	}
	return err
}

func (m *Manager) failSession(ctx context.Context, session *store.Session, message string) error {
	err := m.store.FailSession(ctx, session.ID, session.Status, message)
	if errors.Is(err, store.ErrStateConflict) {
		return nil
	}
	return err
}
