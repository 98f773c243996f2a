package server

import (
	"net/http"

	"sprout/internal/api"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := s.authenticate(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		profile, err := s.profiles.Get(r.Context(), caller)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, profile)
	case http.MethodPut:
		var req api.ProfileRequest
		if err := s.decodeBody(r, &req); err != nil {
			s.writeServiceError(w, err)
			return
		}
		profile, err := s.profiles.Put(r.Context(), caller, req)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, profile)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
