// Package export writes a user's plants and import sessions to parquet
// files for backup or analysis.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"sprout/internal/store"
)

// PlantRecord is the parquet row shape for a plant.
type PlantRecord struct {
	ID                      int64  `parquet:"id"`
	Name                    string `parquet:"name"`
	Species                 string `parquet:"species"`
	ScientificName          string `parquet:"scientific_name"`
	WateringIntervalDays    int32  `parquet:"watering_interval_days"`
	FertilizingIntervalDays int32  `parquet:"fertilizing_interval_days"`
	LastWateredAt           string `parquet:"last_watered_at"`
	LastFertilizedAt        string `parquet:"last_fertilized_at"`
	Light                   string `parquet:"light"`
	Notes                   string `parquet:"notes"`
	CreatedAt               string `parquet:"created_at"`
}

// SessionRecord is the parquet row shape for an import session.
type SessionRecord struct {
	ID                string  `parquet:"id"`
	Status            string  `parquet:"status"`
	IdentifiedSpecies string  `parquet:"identified_species"`
	ScientificName    string  `parquet:"scientific_name"`
	Confidence        float64 `parquet:"confidence"`
	ErrorMessage      string  `parquet:"error_message"`
	CreatedAt         string  `parquet:"created_at"`
	UpdatedAt         string  `parquet:"updated_at"`
}

// Exporter reads owner-scoped rows out of the store and writes parquet
// files.
type Exporter struct {
	store *store.Store
}

func New(st *store.Store) *Exporter {
	return &Exporter{store: st}
}

// Result summarizes an export run.
type Result struct {
	PlantsPath   string
	PlantCount   int
	SessionsPath string
	SessionCount int
}

// Export writes the owner's plants and sessions under dir, returning the
// files written.
func (e *Exporter) Export(ctx context.Context, ownerID int64, dir string) (*Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	result := &Result{
		PlantsPath:   filepath.Join(dir, "plants.parquet"),
		SessionsPath: filepath.Join(dir, "import_sessions.parquet"),
	}

	plants, err := e.store.ListPlantsForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	plantRecords := make([]PlantRecord, 0, len(plants))
	for _, plant := range plants {
		plantRecords = append(plantRecords, PlantRecord{
			ID:                      plant.ID,
			Name:                    plant.Name,
			Species:                 plant.Species,
			ScientificName:          plant.ScientificName,
			WateringIntervalDays:    int32(plant.WateringIntervalDays),
			FertilizingIntervalDays: int32(plant.FertilizingIntervalDays),
			LastWateredAt:           formatOptional(plant.LastWateredAt),
			LastFertilizedAt:        formatOptional(plant.LastFertilizedAt),
			Light:                   plant.Light,
			Notes:                   plant.Notes,
			CreatedAt:               plant.CreatedAt.Format(time.RFC3339),
		})
	}
	if err := writeParquet(result.PlantsPath, plantRecords); err != nil {
		return nil, err
	}
	result.PlantCount = len(plantRecords)

	sessions, err := e.store.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list import sessions: %w", err)
	}
	sessionRecords := make([]SessionRecord, 0, len(sessions))
	for _, session := range sessions {
		record := SessionRecord{
			ID:                session.ID,
			Status:            string(session.Status),
			IdentifiedSpecies: session.IdentifiedSpecies,
			ScientificName:    session.ScientificName,
			ErrorMessage:      session.ErrorMessage,
			CreatedAt:         session.CreatedAt.Format(time.RFC3339),
			UpdatedAt:         session.UpdatedAt.Format(time.RFC3339),
		}
		if session.Confidence != nil {
			record.Confidence = *session.Confidence
		}
		sessionRecords = append(sessionRecords, record)
	}
	if err := writeParquet(result.SessionsPath, sessionRecords); err != nil {
		return nil, err
	}
	result.SessionCount = len(sessionRecords)

	return result, nil
}

func writeParquet[T any](path string, records []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	writer := parquet.NewGenericWriter[T](file)
	if len(records) > 0 {
		if _, err := writer.Write(records); err != nil {
			file.Close()
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return file.Close()
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
