package server

import (
	"net/http"

	"sprout/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports daemon health plus session counts by status. Requires
// authentication; the counts span all users.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, err := s.authenticate(r); err != nil {
		s.writeServiceError(w, err)
		return
	}

	payload := map[string]any{}
	if s.status != nil {
		payload = s.status.StatusSnapshot(r.Context())
	}
	stats, err := s.store.SessionStats(r.Context())
	if err != nil {
		s.writeServiceError(w, api.InternalError("session stats", err))
		return
	}
	sessions := make(map[string]int, len(stats))
	for status, count := range stats {
		sessions[string(status)] = count
	}
	payload["sessions"] = sessions
	s.writeJSON(w, http.StatusOK, payload)
}
