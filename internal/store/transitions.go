package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStateConflict signals that a guarded transition found the session in a
// different status than the one it required. Callers map this to a conflict
// response rather than retrying.
var ErrStateConflict = errors.New("session state conflict")

// CommitSelection records the user's species choice on a session awaiting
// selection and moves it to researching in a single conditional update. The
// status predicate in the WHERE clause makes concurrent submissions race
// safely: exactly one wins, the rest see ErrStateConflict.
func (s *Store) CommitSelection(ctx context.Context, id string, ownerID int64, species, scientificName string) error {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions
         SET status = ?, identified_species = ?, scientific_name = ?, confidence = ?,
             suggestions_json = NULL, error_message = NULL, updated_at = ?
         WHERE id = ? AND owner_id = ? AND status = ?`,
		StatusResearching,
		species,
		nullableString(scientificName),
		UserConfirmedConfidence,
		now,
		id,
		ownerID,
		StatusNeedsSelection,
	)
	if err != nil {
		return fmt.Errorf("commit selection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStateConflict
	}
	return nil
}

// FinishIdentification moves a pending session out of the identification
// stage. Confident matches proceed to researching; ambiguous ones park at
// needs_selection with the candidate list attached.
func (s *Store) FinishIdentification(ctx context.Context, session *Session, next Status) error {
	if next != StatusResearching && next != StatusNeedsSelection {
		return fmt.Errorf("invalid identification outcome %q", next)
	}
	now := timestamp(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions
         SET status = ?, identified_species = ?, scientific_name = ?, confidence = ?,
             suggestions_json = ?, updated_at = ?, last_heartbeat = NULL
         WHERE id = ? AND status = ?`,
		next,
		nullableString(session.IdentifiedSpecies),
		nullableString(session.ScientificName),
		nullableFloat(session.Confidence),
		nullableString(session.SuggestionsJSON),
		now,
		session.ID,
		StatusPending,
	)
	if err != nil {
		return fmt.Errorf("finish identification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStateConflict
	}
	return nil
}

// CompleteResearch stores care details and moves a researching session to
// complete.
func (s *Store) CompleteResearch(ctx context.Context, id string, careJSON string) error {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions
         SET status = ?, care_json = ?, error_message = NULL, updated_at = ?, last_heartbeat = NULL
         WHERE id = ? AND status = ?`,
		StatusComplete,
		careJSON,
		now,
		id,
		StatusResearching,
	)
	if err != nil {
		return fmt.Errorf("complete research: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStateConflict
	}
	return nil
}

// FailSession marks a session failed with an operator-readable message. The
// current status is passed as the guard so a session that already moved on is
// left alone.
func (s *Store) FailSession(ctx context.Context, id string, from Status, message string) error {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions
         SET status = ?, error_message = ?, updated_at = ?, last_heartbeat = NULL
         WHERE id = ? AND status = ?`,
		StatusFailed,
		message,
		now,
		id,
		from,
	)
	if err != nil {
		return fmt.Errorf("fail session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStateConflict
	}
	return nil
}

// ClaimSession stamps a heartbeat on an unclaimed session so a single worker
// owns it while processing. Returns false when another worker got there first.
func (s *Store) ClaimSession(ctx context.Context, id string, status Status) (bool, error) {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions SET last_heartbeat = ? WHERE id = ? AND status = ? AND last_heartbeat IS NULL`,
		now,
		id,
		status,
	)
	if err != nil {
		return false, fmt.Errorf("claim session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// HeartbeatSession refreshes the claim stamp on a session being processed.
func (s *Store) HeartbeatSession(ctx context.Context, id string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions SET last_heartbeat = ? WHERE id = ? AND last_heartbeat IS NOT NULL`,
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("heartbeat session: %w", err)
	}
	return nil
}

// ReleaseSession clears the claim stamp without changing status, returning
// the session to the pollable pool.
func (s *Store) ReleaseSession(ctx context.Context, id string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions SET last_heartbeat = NULL WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("release session: %w", err)
	}
	return nil
}

// ReclaimStale clears heartbeats older than the timeout so sessions orphaned
// by a crashed worker become pollable again. Returns the ids reclaimed.
func (s *Store) ReclaimStale(ctx context.Context, timeout time.Duration) ([]string, error) {
	cutoff := timestamp(time.Now().Add(-timeout))

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id FROM import_sessions WHERE last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("find stale sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, id := range ids {
		if err := s.ReleaseSession(ctx, id); err != nil {
			return ids, err
		}
	}
	return ids, nil
}
