// Package server exposes the HTTP API: authentication, the plant catalog,
// photo uploads, profiles and the import-session workflow.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"sprout/internal/api"
	"sprout/internal/auth"
	"sprout/internal/config"
	"sprout/internal/logging"
	"sprout/internal/photos"
	"sprout/internal/store"
)

// sessionCookie carries the auth token for browser clients; API clients use
// the Authorization header.
const sessionCookie = "sprout_session"

// StatusSource reports daemon health for the status endpoint.
type StatusSource interface {
	StatusSnapshot(ctx context.Context) map[string]any
}

// Server is the HTTP API server.
type Server struct {
	bind   string
	logger *slog.Logger

	authn    *auth.Authn
	store    *store.Store
	library  *photos.Library
	imports  *api.ImportService
	plants   *api.PlantService
	profiles *api.ProfileService
	status   StatusSource

	listener net.Listener
	server   *http.Server
}

// New builds the server and its routes.
func New(cfg *config.Config, st *store.Store, authn *auth.Authn, library *photos.Library, engine api.EngineTrigger, status StatusSource, logger *slog.Logger) (*Server, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is not configured")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{
		bind:     bind,
		logger:   logger.With(logging.String(logging.FieldComponent, "api-server")),
		authn:    authn,
		store:    st,
		library:  library,
		imports:  api.NewImportService(st, engine, logger),
		plants:   api.NewPlantService(st, logger),
		profiles: api.NewProfileService(st),
		status:   status,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", srv.handleRegister)
	mux.HandleFunc("/api/auth/login", srv.handleLogin)
	mux.HandleFunc("/api/auth/logout", srv.handleLogout)
	mux.HandleFunc("/api/auth/me", srv.handleMe)
	mux.HandleFunc("/api/plants", srv.handlePlants)
	mux.HandleFunc("/api/plants/", srv.handlePlant)
	mux.HandleFunc("/api/photos", srv.handlePhotos)
	mux.HandleFunc("/api/photos/", srv.handlePhoto)
	mux.HandleFunc("/api/profile", srv.handleProfile)
	mux.HandleFunc("/api/import-sessions", srv.handleSessions)
	mux.HandleFunc("/api/import-sessions/", srv.handleSession)
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.HandleFunc("/api/status", srv.handleStatus)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Start begins serving and shuts down when the context ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound listener address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// authenticate resolves the caller from the Authorization header or the
// session cookie. Every owner-scoped handler starts here; the resolved
// context is passed explicitly into the service layer.
func (s *Server) authenticate(r *http.Request) (*auth.Context, error) {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return nil, api.AuthError("authentication required")
	}
	caller, err := s.authn.Resolve(r.Context(), token)
	if err != nil {
		return nil, api.InternalError("resolve token", err)
	}
	if caller == nil {
		return nil, api.AuthError("invalid or expired token")
	}
	return caller, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := decoder.Decode(out); err != nil {
		return api.ValidationError("invalid request body")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service-layer error to its HTTP response and logs
// internal detail that must not reach the client.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	apiErr := api.AsError(err)
	if apiErr.Kind == api.KindInternal || apiErr.Kind == api.KindDownstream {
		s.logger.Error("request failed", logging.Error(err))
	}
	s.writeError(w, apiErr.HTTPStatus(), apiErr.Message)
}
