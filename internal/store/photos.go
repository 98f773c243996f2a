package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const photoColumns = "id, owner_id, plant_id, filename, content_type, size_bytes, created_at"

// CreatePhoto records an uploaded image. The blob itself is stored on disk
// by the photos package; this row only tracks metadata.
func (s *Store) CreatePhoto(ctx context.Context, photo *Photo) error {
	if photo == nil {
		return errors.New("photo is nil")
	}
	if photo.ID == "" {
		return errors.New("photo id is required")
	}
	photo.CreatedAt = time.Now().UTC()

	var plantID any
	if photo.PlantID != nil {
		plantID = *photo.PlantID
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO photos (id, owner_id, plant_id, filename, content_type, size_bytes, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		photo.ID,
		photo.OwnerID,
		plantID,
		photo.Filename,
		photo.ContentType,
		photo.SizeBytes,
		timestamp(photo.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// GetPhotoForOwner fetches photo metadata scoped to its owner. Returns nil
// when absent or owned by someone else.
func (s *Store) GetPhotoForOwner(ctx context.Context, id string, ownerID int64) (*Photo, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return photo, nil
}

// ListPhotosForPlant returns a plant's photos, newest first.
func (s *Store) ListPhotosForPlant(ctx context.Context, plantID, ownerID int64) ([]*Photo, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+photoColumns+` FROM photos WHERE plant_id = ? AND owner_id = ? ORDER BY created_at DESC`,
		plantID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []*Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

// AttachPhotoToPlant links an uploaded photo to a plant, both owner scoped.
func (s *Store) AttachPhotoToPlant(ctx context.Context, photoID string, plantID, ownerID int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE photos SET plant_id = ? WHERE id = ? AND owner_id = ?`,
		plantID, photoID, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("attach photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeletePhotoForOwner removes photo metadata, scoped to its owner. The caller
// is responsible for deleting the disk blob.
func (s *Store) DeletePhotoForOwner(ctx context.Context, id string, ownerID int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM photos WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanPhoto(scanner interface{ Scan(dest ...any) error }) (*Photo, error) {
	var (
		photo      Photo
		plantID    sql.NullInt64
		createdRaw string
	)
	if err := scanner.Scan(
		&photo.ID,
		&photo.OwnerID,
		&plantID,
		&photo.Filename,
		&photo.ContentType,
		&photo.SizeBytes,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	if plantID.Valid {
		value := plantID.Int64
		photo.PlantID = &value
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		photo.CreatedAt = created
	}
	return &photo, nil
}
