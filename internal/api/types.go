// Package api implements the service layer behind the HTTP server: request
// validation, owner scoping, and the import-session selection transition.
package api

import (
	"time"

	"sprout/internal/store"
)

// SelectRequest is the body of a selection submission.
type SelectRequest struct {
	Species        string `json:"species"`
	ScientificName string `json:"scientificName"`
}

// SelectResponse acknowledges a committed selection.
type SelectResponse struct {
	Success bool         `json:"success"`
	Session *SessionView `json:"session,omitempty"`
}

// SessionView is the wire representation of an import session.
type SessionView struct {
	ID                string             `json:"id"`
	Status            string             `json:"status"`
	PhotoID           string             `json:"photoId,omitempty"`
	IdentifiedSpecies string             `json:"identifiedSpecies,omitempty"`
	ScientificName    string             `json:"scientificName,omitempty"`
	Confidence        *float64           `json:"confidence,omitempty"`
	Suggestions       []store.Suggestion `json:"suggestions,omitempty"`
	Care              *store.CareDetails `json:"care,omitempty"`
	ErrorMessage      string             `json:"errorMessage,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// NewSessionView converts a stored session for the wire.
func NewSessionView(session *store.Session) *SessionView {
	view := &SessionView{
		ID:                session.ID,
		Status:            string(session.Status),
		PhotoID:           session.PhotoID,
		IdentifiedSpecies: session.IdentifiedSpecies,
		ScientificName:    session.ScientificName,
		Confidence:        session.Confidence,
		ErrorMessage:      session.ErrorMessage,
		CreatedAt:         session.CreatedAt,
		UpdatedAt:         session.UpdatedAt,
	}
	if suggestions, err := session.Suggestions(); err == nil {
		view.Suggestions = suggestions
	}
	if care, err := session.Care(); err == nil {
		view.Care = care
	}
	return view
}

// PlantRequest is the body for creating or updating a plant.
type PlantRequest struct {
	Name                    string     `json:"name"`
	Species                 string     `json:"species,omitempty"`
	ScientificName          string     `json:"scientificName,omitempty"`
	AcquiredAt              *time.Time `json:"acquiredAt,omitempty"`
	WateringIntervalDays    int        `json:"wateringIntervalDays"`
	FertilizingIntervalDays int        `json:"fertilizingIntervalDays"`
	Light                   string     `json:"light,omitempty"`
	Notes                   string     `json:"notes,omitempty"`
}

// PlantView is the wire representation of a plant.
type PlantView struct {
	ID                      int64      `json:"id"`
	Name                    string     `json:"name"`
	Species                 string     `json:"species,omitempty"`
	ScientificName          string     `json:"scientificName,omitempty"`
	AcquiredAt              *time.Time `json:"acquiredAt,omitempty"`
	WateringIntervalDays    int        `json:"wateringIntervalDays"`
	FertilizingIntervalDays int        `json:"fertilizingIntervalDays"`
	LastWateredAt           *time.Time `json:"lastWateredAt,omitempty"`
	LastFertilizedAt        *time.Time `json:"lastFertilizedAt,omitempty"`
	Light                   string     `json:"light,omitempty"`
	Notes                   string     `json:"notes,omitempty"`
	NeedsWater              bool       `json:"needsWater"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

// NewPlantView converts a stored plant for the wire.
func NewPlantView(plant *store.Plant) *PlantView {
	return &PlantView{
		ID:                      plant.ID,
		Name:                    plant.Name,
		Species:                 plant.Species,
		ScientificName:          plant.ScientificName,
		AcquiredAt:              plant.AcquiredAt,
		WateringIntervalDays:    plant.WateringIntervalDays,
		FertilizingIntervalDays: plant.FertilizingIntervalDays,
		LastWateredAt:           plant.LastWateredAt,
		LastFertilizedAt:        plant.LastFertilizedAt,
		Light:                   plant.Light,
		Notes:                   plant.Notes,
		NeedsWater:              plant.NeedsWater(time.Now()),
		CreatedAt:               plant.CreatedAt,
		UpdatedAt:               plant.UpdatedAt,
	}
}

// ProfileRequest is the body for updating the caller's profile.
type ProfileRequest struct {
	DisplayName string `json:"displayName,omitempty"`
	Location    string `json:"location,omitempty"`
	Experience  string `json:"experience,omitempty"`
}

// ProfileView is the wire representation of a profile.
type ProfileView struct {
	DisplayName string    `json:"displayName,omitempty"`
	Location    string    `json:"location,omitempty"`
	Experience  string    `json:"experience,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// PhotoView is the wire representation of photo metadata.
type PhotoView struct {
	ID          string    `json:"id"`
	PlantID     *int64    `json:"plantId,omitempty"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewPhotoView converts stored photo metadata for the wire.
func NewPhotoView(photo *store.Photo) *PhotoView {
	return &PhotoView{
		ID:          photo.ID,
		PlantID:     photo.PlantID,
		Filename:    photo.Filename,
		ContentType: photo.ContentType,
		SizeBytes:   photo.SizeBytes,
		CreatedAt:   photo.CreatedAt,
	}
}
