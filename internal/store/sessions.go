package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sessionColumns = "id, owner_id, status, photo_id, identified_species, scientific_name, confidence, suggestions_json, care_json, error_message, created_at, updated_at, last_heartbeat"

// NewImport inserts a pending import session for the owning user.
func (s *Store) NewImport(ctx context.Context, ownerID int64, photoID string) (*Session, error) {
	if ownerID <= 0 {
		return nil, errors.New("owner id is required")
	}
	id := uuid.NewString()
	now := timestamp(time.Now())

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO import_sessions (id, owner_id, status, photo_id, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		ownerID,
		StatusPending,
		nullableString(photoID),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert import session: %w", err)
	}

	return s.GetForOwner(ctx, id, ownerID)
}

// GetForOwner fetches a session by identifier, scoped to its owner.
// Returns nil when the session does not exist or belongs to another user;
// the two cases are deliberately indistinguishable.
func (s *Store) GetForOwner(ctx context.Context, id string, ownerID int64) (*Session, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+` FROM import_sessions WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get import session: %w", err)
	}
	return session, nil
}

// ListForOwner returns the owner's sessions, optionally filtered by status,
// newest first.
func (s *Store) ListForOwner(ctx context.Context, ownerID int64, statuses ...Status) ([]*Session, error) {
	baseQuery := `SELECT ` + sessionColumns + ` FROM import_sessions WHERE owner_id = ?`
	orderClause := ` ORDER BY created_at DESC`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause, ownerID)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, 0, len(statuses)+1)
		args = append(args, ownerID)
		for _, status := range statuses {
			args = append(args, status)
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` AND status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list import sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// UpdateSession persists changes to an existing session. The workflow manager
// is the only caller; API-facing mutations go through the guarded transitions.
func (s *Store) UpdateSession(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	session.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE import_sessions
         SET status = ?, photo_id = ?, identified_species = ?, scientific_name = ?,
             confidence = ?, suggestions_json = ?, care_json = ?, error_message = ?,
             updated_at = ?, last_heartbeat = ?
         WHERE id = ?`,
		session.Status,
		nullableString(session.PhotoID),
		nullableString(session.IdentifiedSpecies),
		nullableString(session.ScientificName),
		nullableFloat(session.Confidence),
		nullableString(session.SuggestionsJSON),
		nullableString(session.CareJSON),
		nullableString(session.ErrorMessage),
		timestamp(session.UpdatedAt),
		nullableTime(session.LastHeartbeat),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update import session: %w", err)
	}
	return nil
}

// DeleteForOwner removes a session regardless of status, scoped to its owner.
func (s *Store) DeleteForOwner(ctx context.Context, id string, ownerID int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM import_sessions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete import session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// NextForStatuses returns the oldest unclaimed session matching any of the
// provided statuses. Unscoped by owner; only the workflow manager uses it.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Session, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + sessionColumns + ` FROM import_sessions
        WHERE status IN (` + placeholders + `) AND last_heartbeat IS NULL
        ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SessionStats returns a count of sessions grouped by status.
func (s *Store) SessionStats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM import_sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id               string
		ownerID          int64
		statusStr        string
		photoID          sql.NullString
		species          sql.NullString
		scientificName   sql.NullString
		confidence       sql.NullFloat64
		suggestions      sql.NullString
		care             sql.NullString
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&ownerID,
		&statusStr,
		&photoID,
		&species,
		&scientificName,
		&confidence,
		&suggestions,
		&care,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	session := &Session{
		ID:                id,
		OwnerID:           ownerID,
		Status:            Status(statusStr),
		PhotoID:           photoID.String,
		IdentifiedSpecies: species.String,
		ScientificName:    scientificName.String,
		SuggestionsJSON:   suggestions.String,
		CareJSON:          care.String,
		ErrorMessage:      errorMessage.String,
	}
	if confidence.Valid {
		value := confidence.Float64
		session.Confidence = &value
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		session.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			session.LastHeartbeat = &heartbeat
		}
	}
	return session, nil
}
