// Package daemon coordinates the background services: the workflow manager,
// the HTTP API server, and the single-instance lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"sprout/internal/auth"
	"sprout/internal/config"
	"sprout/internal/identify"
	"sprout/internal/logging"
	"sprout/internal/photos"
	"sprout/internal/server"
	"sprout/internal/store"
	"sprout/internal/workflow"
)

// Daemon owns the process-level lifecycle and enforces single-instance
// execution through a file lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	engine   identify.Engine
	workflow *workflow.Manager
	server   *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New wires the daemon's services from configuration.
func New(cfg *config.Config, st *store.Store, engine identify.Engine, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || engine == nil {
		return nil, errors.New("daemon requires config, store and engine")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	library, err := photos.NewLibrary(cfg)
	if err != nil {
		return nil, err
	}
	authn := auth.New(st, cfg)
	manager := workflow.NewManager(st, engine, library, cfg, logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		engine:   engine,
		workflow: manager,
		lockPath: filepath.Join(cfg.Paths.DataDir, "sproutd.lock"),
	}
	d.lock = flock.New(d.lockPath)

	srv, err := server.New(cfg, st, authn, library, engine, d, logger)
	if err != nil {
		return nil, err
	}
	d.server = srv
	return d, nil
}

// Start acquires the lock and launches the workflow manager and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another sprout daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.workflow.Start(runCtx); err != nil {
		d.releaseOnStartFailure()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.server.Start(runCtx); err != nil {
		d.workflow.Stop()
		d.releaseOnStartFailure()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("sprout daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("pid", os.Getpid()))
	return nil
}

func (d *Daemon) releaseOnStartFailure() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}

// Stop halts background processing and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("sprout daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.engine != nil {
		errs = append(errs, d.engine.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// Addr returns the API server's bound address.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// StatusSnapshot reports daemon runtime information for the status endpoint.
func (d *Daemon) StatusSnapshot(_ context.Context) map[string]any {
	snapshot := map[string]any{
		"running":  d.running.Load(),
		"pid":      os.Getpid(),
		"workflow": d.workflow.Running(),
		"database": d.store.Path(),
		"lockFile": d.lockPath,
	}
	if err := d.workflow.LastError(); err != nil {
		snapshot["lastError"] = err.Error()
	}
	return snapshot
}
