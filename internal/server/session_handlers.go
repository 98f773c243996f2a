package server

import (
	"net/http"
	"strings"

	"sprout/internal/api"
	"sprout/internal/auth"
)

type createSessionRequest struct {
	PhotoID string `json:"photoId"`
}

type importRequest struct {
	Name string `json:"name,omitempty"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	caller, err := s.authenticate(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.imports.List(r.Context(), caller, strings.TrimSpace(r.URL.Query().Get("status")))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
	case http.MethodPost:
		var req createSessionRequest
		if err := s.decodeBody(r, &req); err != nil {
			s.writeServiceError(w, err)
			return
		}
		session, err := s.imports.Create(r.Context(), caller, req.PhotoID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, session)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	caller, err := s.authenticate(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/import-sessions/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	switch action {
	case "":
		s.handleSessionItem(w, r, caller, id)
	case "select":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req api.SelectRequest
		if err := s.decodeBody(r, &req); err != nil {
			s.writeServiceError(w, err)
			return
		}
		resp, err := s.imports.Select(r.Context(), caller, id, req)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	case "import":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req importRequest
		if r.ContentLength > 0 {
			if err := s.decodeBody(r, &req); err != nil {
				s.writeServiceError(w, err)
				return
			}
		}
		plant, err := s.imports.ImportPlant(r.Context(), caller, id, req.Name)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, plant)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleSessionItem(w http.ResponseWriter, r *http.Request, caller *auth.Context, id string) {
	switch r.Method {
	case http.MethodGet:
		session, err := s.imports.Get(r.Context(), caller, id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, session)
	case http.MethodDelete:
		if err := s.imports.Delete(r.Context(), caller, id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
