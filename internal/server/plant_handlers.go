package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"sprout/internal/api"
	"sprout/internal/auth"
)

func (s *Server) handlePlants(w http.ResponseWriter, r *http.Request) {
	caller, err := s.authenticate(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		plants, err := s.plants.List(r.Context(), caller)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"plants": plants})
	case http.MethodPost:
		var req api.PlantRequest
		if err := s.decodeBody(r, &req); err != nil {
			s.writeServiceError(w, err)
			return
		}
		plant, err := s.plants.Create(r.Context(), caller, req)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, plant)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type careEventRequest struct {
	At *time.Time `json:"at,omitempty"`
}

func (s *Server) handlePlant(w http.ResponseWriter, r *http.Request) {
	caller, err := s.authenticate(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/plants/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid plant id")
		return
	}

	switch action {
	case "":
		s.handlePlantItem(w, r, caller, id)
	case "water", "fertilize":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req careEventRequest
		if r.ContentLength > 0 {
			if err := s.decodeBody(r, &req); err != nil {
				s.writeServiceError(w, err)
				return
			}
		}
		var at time.Time
		if req.At != nil {
			at = *req.At
		}
		var plant *api.PlantView
		if action == "water" {
			plant, err = s.plants.Water(r.Context(), caller, id, at)
		} else {
			plant, err = s.plants.Fertilize(r.Context(), caller, id, at)
		}
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, plant)
	case "photos":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handlePlantPhotos(w, r, caller, id)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handlePlantItem(w http.ResponseWriter, r *http.Request, caller *auth.Context, id int64) {
	switch r.Method {
	case http.MethodGet:
		plant, err := s.plants.Get(r.Context(), caller, id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, plant)
	case http.MethodPut:
		var req api.PlantRequest
		if err := s.decodeBody(r, &req); err != nil {
			s.writeServiceError(w, err)
			return
		}
		plant, err := s.plants.Update(r.Context(), caller, id, req)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, plant)
	case http.MethodDelete:
		if err := s.plants.Delete(r.Context(), caller, id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePlantPhotos(w http.ResponseWriter, r *http.Request, caller *auth.Context, plantID int64) {
	plant, err := s.plants.Get(r.Context(), caller, plantID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	stored, err := s.store.ListPhotosForPlant(r.Context(), plant.ID, caller.UserID)
	if err != nil {
		s.writeServiceError(w, api.InternalError("list photos", err))
		return
	}
	views := make([]*api.PhotoView, 0, len(stored))
	for _, photo := range stored {
		views = append(views, api.NewPhotoView(photo))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"photos": views})
}
