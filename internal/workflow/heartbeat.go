package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"sprout/internal/logging"
	"sprout/internal/store"
)

// HeartbeatMonitor manages session claims and stale session reclamation.
type HeartbeatMonitor struct {
	store    *store.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

func NewHeartbeatMonitor(st *store.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		store:    st,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
	}
}

// ReclaimStale releases claims whose heartbeat went quiet, returning the
// sessions to the pollable pool.
func (h *HeartbeatMonitor) ReclaimStale(ctx context.Context) error {
	if h.timeout <= 0 {
		return nil
	}
	reclaimed, err := h.store.ReclaimStale(ctx, h.timeout)
	if err != nil {
		return err
	}
	if len(reclaimed) > 0 {
		h.logger.Info("reclaimed stale sessions", logging.Int("count", len(reclaimed)))
	}
	return nil
}

// StartLoop refreshes the claim stamp on a session until the context ends.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, sessionID string) {
	defer wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.HeartbeatSession(ctx, sessionID); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				h.logger.Warn("heartbeat update failed",
					logging.String(logging.FieldSessionID, sessionID),
					logging.Error(err))
			}
		}
	}
}
