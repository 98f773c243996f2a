package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sprout/internal/auth"
	"sprout/internal/logging"
	"sprout/internal/store"
)

// PlantService owns the plant catalog API surface.
type PlantService struct {
	store  *store.Store
	logger *slog.Logger
}

func NewPlantService(st *store.Store, logger *slog.Logger) *PlantService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PlantService{store: st, logger: logger}
}

func validatePlantRequest(req PlantRequest) *Error {
	if strings.TrimSpace(req.Name) == "" {
		return ValidationError("name is required")
	}
	if req.WateringIntervalDays < 0 || req.FertilizingIntervalDays < 0 {
		return ValidationError("care intervals must not be negative")
	}
	return nil
}

// Create adds a plant to the caller's catalog.
func (s *PlantService) Create(ctx context.Context, caller *auth.Context, req PlantRequest) (*PlantView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	if err := validatePlantRequest(req); err != nil {
		return nil, err
	}
	plant := &store.Plant{
		OwnerID:                 caller.UserID,
		Name:                    strings.TrimSpace(req.Name),
		Species:                 req.Species,
		ScientificName:          req.ScientificName,
		AcquiredAt:              req.AcquiredAt,
		WateringIntervalDays:    req.WateringIntervalDays,
		FertilizingIntervalDays: req.FertilizingIntervalDays,
		Light:                   req.Light,
		Notes:                   req.Notes,
	}
	plant, err := s.store.CreatePlant(ctx, plant)
	if err != nil {
		return nil, InternalError("create plant", err)
	}
	return NewPlantView(plant), nil
}

// Get returns a plant scoped to the caller.
func (s *PlantService) Get(ctx context.Context, caller *auth.Context, id int64) (*PlantView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	plant, err := s.store.GetPlantForOwner(ctx, id, caller.UserID)
	if err != nil {
		return nil, InternalError("load plant", err)
	}
	if plant == nil {
		return nil, NotFoundError("plant not found")
	}
	return NewPlantView(plant), nil
}

// List returns the caller's plants.
func (s *PlantService) List(ctx context.Context, caller *auth.Context) ([]*PlantView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	plants, err := s.store.ListPlantsForOwner(ctx, caller.UserID)
	if err != nil {
		return nil, InternalError("list plants", err)
	}
	views := make([]*PlantView, 0, len(plants))
	for _, plant := range plants {
		views = append(views, NewPlantView(plant))
	}
	return views, nil
}

// Update replaces a plant's editable fields.
func (s *PlantService) Update(ctx context.Context, caller *auth.Context, id int64, req PlantRequest) (*PlantView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	if err := validatePlantRequest(req); err != nil {
		return nil, err
	}
	plant, err := s.store.GetPlantForOwner(ctx, id, caller.UserID)
	if err != nil {
		return nil, InternalError("load plant", err)
	}
	if plant == nil {
		return nil, NotFoundError("plant not found")
	}

	plant.Name = strings.TrimSpace(req.Name)
	plant.Species = req.Species
	plant.ScientificName = req.ScientificName
	plant.AcquiredAt = req.AcquiredAt
	plant.WateringIntervalDays = req.WateringIntervalDays
	plant.FertilizingIntervalDays = req.FertilizingIntervalDays
	plant.Light = req.Light
	plant.Notes = req.Notes

	updated, err := s.store.UpdatePlant(ctx, plant)
	if err != nil {
		return nil, InternalError("update plant", err)
	}
	if !updated {
		return nil, NotFoundError("plant not found")
	}
	return NewPlantView(plant), nil
}

// Delete removes a plant scoped to the caller.
func (s *PlantService) Delete(ctx context.Context, caller *auth.Context, id int64) error {
	if caller == nil {
		return AuthError("authentication required")
	}
	deleted, err := s.store.DeletePlantForOwner(ctx, id, caller.UserID)
	if err != nil {
		return InternalError("delete plant", err)
	}
	if !deleted {
		return NotFoundError("plant not found")
	}
	return nil
}

// Water records a watering event on a plant.
func (s *PlantService) Water(ctx context.Context, caller *auth.Context, id int64, at time.Time) (*PlantView, error) {
	return s.markCare(ctx, caller, id, at, s.store.MarkWatered)
}

// Fertilize records a fertilizing event on a plant.
func (s *PlantService) Fertilize(ctx context.Context, caller *auth.Context, id int64, at time.Time) (*PlantView, error) {
	return s.markCare(ctx, caller, id, at, s.store.MarkFertilized)
}

func (s *PlantService) markCare(ctx context.Context, caller *auth.Context, id int64, at time.Time, mark func(context.Context, int64, int64, time.Time) (bool, error)) (*PlantView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	marked, err := mark(ctx, id, caller.UserID, at)
	if err != nil {
		return nil, InternalError("record care event", err)
	}
	if !marked {
		return nil, NotFoundError("plant not found")
	}
	plant, err := s.store.GetPlantForOwner(ctx, id, caller.UserID)
	if err != nil {
		return nil, InternalError("reload plant", err)
	}
	if plant == nil {
		return nil, NotFoundError("plant not found")
	}
	s.logger.Debug("care event recorded",
		logging.Int64("plant_id", id),
		logging.Int64(logging.FieldUserID, caller.UserID))
	return NewPlantView(plant), nil
}
