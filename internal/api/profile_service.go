package api

import (
	"context"
	"unicode/utf8"

	"sprout/internal/auth"
	"sprout/internal/store"
)

// ProfileService owns the per-user profile API surface.
type ProfileService struct {
	store *store.Store
}

func NewProfileService(st *store.Store) *ProfileService {
	return &ProfileService{store: st}
}

// Get returns the caller's profile, empty when never saved.
func (s *ProfileService) Get(ctx context.Context, caller *auth.Context) (*ProfileView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	profile, err := s.store.GetProfile(ctx, caller.UserID)
	if err != nil {
		return nil, InternalError("load profile", err)
	}
	return &ProfileView{
		DisplayName: profile.DisplayName,
		Location:    profile.Location,
		Experience:  profile.Experience,
		UpdatedAt:   profile.UpdatedAt,
	}, nil
}

// Put replaces the caller's profile.
func (s *ProfileService) Put(ctx context.Context, caller *auth.Context, req ProfileRequest) (*ProfileView, error) {
	if caller == nil {
		return nil, AuthError("authentication required")
	}
	if utf8.RuneCountInString(req.DisplayName) > 120 {
		return nil, ValidationError("displayName must be at most 120 characters")
	}
	profile := &store.Profile{
		UserID:      caller.UserID,
		DisplayName: req.DisplayName,
		Location:    req.Location,
		Experience:  req.Experience,
	}
	if err := s.store.PutProfile(ctx, profile); err != nil {
		return nil, InternalError("save profile", err)
	}
	return &ProfileView{
		DisplayName: profile.DisplayName,
		Location:    profile.Location,
		Experience:  profile.Experience,
		UpdatedAt:   profile.UpdatedAt,
	}, nil
}
