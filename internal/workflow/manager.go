// Package workflow drives import sessions through identification and
// research in the background. A single processing lane polls for pending and
// researching sessions, claims one at a time with a heartbeat, and applies
// guarded status transitions.
package workflow

import (
	"log/slog"
	"sync"
	"time"

	"sprout/internal/config"
	"sprout/internal/identify"
	"sprout/internal/logging"
	"sprout/internal/photos"
	"sprout/internal/store"
)

// Manager owns the background processing loop.
type Manager struct {
	store        *store.Store
	engine       identify.Engine
	library      *photos.Library
	cfg          *config.Config
	logger       *slog.Logger
	heartbeat    *HeartbeatMonitor
	pollInterval time.Duration

	mu        sync.Mutex
	running   bool
	cancel    func()
	wg        sync.WaitGroup
	lastError error
}

// NewManager wires the processing loop. A nil logger is replaced with a
// no-op one.
func NewManager(st *store.Store, engine identify.Engine, library *photos.Library, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "workflow"))
	return &Manager{
		store:        st,
		engine:       engine,
		library:      library,
		cfg:          cfg,
		logger:       logger,
		pollInterval: time.Duration(cfg.Workflow.SessionPollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			st,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// Running reports whether the loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastError returns the most recent processing error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastError = err
	m.mu.Unlock()
}
