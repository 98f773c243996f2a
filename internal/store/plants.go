package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const plantColumns = "id, owner_id, name, species, scientific_name, acquired_at, watering_interval_days, fertilizing_interval_days, last_watered_at, last_fertilized_at, light, notes, created_at, updated_at"

// CreatePlant inserts a plant for the owning user and returns it with its
// assigned id.
func (s *Store) CreatePlant(ctx context.Context, plant *Plant) (*Plant, error) {
	if plant == nil {
		return nil, errors.New("plant is nil")
	}
	if plant.OwnerID <= 0 {
		return nil, errors.New("owner id is required")
	}
	now := time.Now().UTC()
	plant.CreatedAt = now
	plant.UpdatedAt = now

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO plants (owner_id, name, species, scientific_name, acquired_at,
            watering_interval_days, fertilizing_interval_days, last_watered_at,
            last_fertilized_at, light, notes, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plant.OwnerID,
		plant.Name,
		nullableString(plant.Species),
		nullableString(plant.ScientificName),
		nullableTime(plant.AcquiredAt),
		plant.WateringIntervalDays,
		plant.FertilizingIntervalDays,
		nullableTime(plant.LastWateredAt),
		nullableTime(plant.LastFertilizedAt),
		nullableString(plant.Light),
		nullableString(plant.Notes),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert plant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	plant.ID = id
	return plant, nil
}

// GetPlantForOwner fetches a plant scoped to its owner. Returns nil when the
// plant is absent or owned by someone else.
func (s *Store) GetPlantForOwner(ctx context.Context, id, ownerID int64) (*Plant, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+plantColumns+` FROM plants WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	plant, err := scanPlant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return plant, nil
}

// ListPlantsForOwner returns the owner's plants ordered by name.
func (s *Store) ListPlantsForOwner(ctx context.Context, ownerID int64) ([]*Plant, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+plantColumns+` FROM plants WHERE owner_id = ? ORDER BY name COLLATE NOCASE`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	defer rows.Close()

	var plants []*Plant
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		plants = append(plants, plant)
	}
	return plants, rows.Err()
}

// UpdatePlant persists changes to an existing plant, scoped to its owner.
// Returns false when no plant matched.
func (s *Store) UpdatePlant(ctx context.Context, plant *Plant) (bool, error) {
	if plant == nil {
		return false, errors.New("plant is nil")
	}
	plant.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE plants
         SET name = ?, species = ?, scientific_name = ?, acquired_at = ?,
             watering_interval_days = ?, fertilizing_interval_days = ?,
             last_watered_at = ?, last_fertilized_at = ?, light = ?, notes = ?,
             updated_at = ?
         WHERE id = ? AND owner_id = ?`,
		plant.Name,
		nullableString(plant.Species),
		nullableString(plant.ScientificName),
		nullableTime(plant.AcquiredAt),
		plant.WateringIntervalDays,
		plant.FertilizingIntervalDays,
		nullableTime(plant.LastWateredAt),
		nullableTime(plant.LastFertilizedAt),
		nullableString(plant.Light),
		nullableString(plant.Notes),
		timestamp(plant.UpdatedAt),
		plant.ID,
		plant.OwnerID,
	)
	if err != nil {
		return false, fmt.Errorf("update plant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeletePlantForOwner removes a plant, scoped to its owner.
func (s *Store) DeletePlantForOwner(ctx context.Context, id, ownerID int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM plants WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete plant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkWatered stamps a watering event on a plant. A zero time means now.
func (s *Store) MarkWatered(ctx context.Context, id, ownerID int64, at time.Time) (bool, error) {
	return s.markCare(ctx, "last_watered_at", id, ownerID, at)
}

// MarkFertilized stamps a fertilizing event on a plant. A zero time means now.
func (s *Store) MarkFertilized(ctx context.Context, id, ownerID int64, at time.Time) (bool, error) {
	return s.markCare(ctx, "last_fertilized_at", id, ownerID, at)
}

func (s *Store) markCare(ctx context.Context, column string, id, ownerID int64, at time.Time) (bool, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE plants SET `+column+` = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		timestamp(at),
		timestamp(time.Now()),
		id,
		ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("mark care event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanPlant(scanner interface{ Scan(dest ...any) error }) (*Plant, error) {
	var (
		plant           Plant
		species         sql.NullString
		scientificName  sql.NullString
		acquiredRaw     sql.NullString
		lastWateredRaw  sql.NullString
		lastFertRaw     sql.NullString
		light           sql.NullString
		notes           sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&plant.ID,
		&plant.OwnerID,
		&plant.Name,
		&species,
		&scientificName,
		&acquiredRaw,
		&plant.WateringIntervalDays,
		&plant.FertilizingIntervalDays,
		&lastWateredRaw,
		&lastFertRaw,
		&light,
		&notes,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	plant.Species = species.String
	plant.ScientificName = scientificName.String
	plant.Light = light.String
	plant.Notes = notes.String

	if acquiredRaw.Valid {
		if t, err := parseTimeString(acquiredRaw.String); err == nil {
			plant.AcquiredAt = &t
		}
	}
	if lastWateredRaw.Valid {
		if t, err := parseTimeString(lastWateredRaw.String); err == nil {
			plant.LastWateredAt = &t
		}
	}
	if lastFertRaw.Valid {
		if t, err := parseTimeString(lastFertRaw.String); err == nil {
			plant.LastFertilizedAt = &t
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		plant.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		plant.UpdatedAt = updated
	}
	return &plant, nil
}
