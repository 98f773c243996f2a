package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetProfile returns the user's profile, or an empty one when none has been
// saved yet.
func (s *Store) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT user_id, display_name, location, experience, updated_at FROM profiles WHERE user_id = ?`,
		userID,
	)
	var (
		profile     Profile
		displayName sql.NullString
		location    sql.NullString
		experience  sql.NullString
		updatedRaw  string
	)
	err := row.Scan(&profile.UserID, &displayName, &location, &experience, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return &Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	profile.DisplayName = displayName.String
	profile.Location = location.String
	profile.Experience = experience.String
	if updated, err := parseTimeString(updatedRaw); err == nil {
		profile.UpdatedAt = updated
	}
	return &profile, nil
}

// PutProfile upserts the user's profile row.
func (s *Store) PutProfile(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return errors.New("profile is nil")
	}
	profile.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO profiles (user_id, display_name, location, experience, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(user_id) DO UPDATE SET
             display_name = excluded.display_name,
             location = excluded.location,
             experience = excluded.experience,
             updated_at = excluded.updated_at`,
		profile.UserID,
		nullableString(profile.DisplayName),
		nullableString(profile.Location),
		nullableString(profile.Experience),
		timestamp(profile.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
