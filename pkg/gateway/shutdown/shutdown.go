// Package shutdown coordinates time-bounded graceful teardown of the
// engine.
package shutdown

import (
	"context"
	"log/slog"
	"time"

	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/lifecycle"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/metrics"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/session"
)

// DefaultTimeout bounds the drain race.
const DefaultTimeout = 30 * time.Second

// TransportServer is the transport listener the coordinator closes last.
type TransportServer interface {
	Close() error
}

// Coordinator executes the shutdown protocol: stop admission, close model
// sub-connections, race the drain against the timeout, force-disconnect
// stragglers, persist a best-effort snapshot, close the transport server.
type Coordinator struct {
	lifecycle *lifecycle.Lifecycle
	tracker   *session.Tracker
	manager   *session.Manager
	metrics   *metrics.Metrics
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

func New(lc *lifecycle.Lifecycle, tracker *session.Tracker, manager *session.Manager, m *metrics.Metrics, logger *slog.Logger, timeout time.Duration) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{
		lifecycle: lc,
		tracker:   tracker,
		manager:   manager,
		metrics:   m,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Run performs the full shutdown sequence. It never panics and persists
// state best-effort: snapshot failures are logged and skipped. If closing
// the transport server fails, remaining connections are still force-closed
// before the failure propagates.
func (c *Coordinator) Run(ctx context.Context, transport TransportServer) error {
	start := c.now()
	c.lifecycle.SetDraining(true)

	active := c.tracker.Count()
	c.logger.Info("shutdown started", "active_sessions", active, "timeout", c.timeout)

	closed := c.tracker.CloseModelConns()
	if closed > 0 {
		c.logger.Info("model connections closed", "count", closed)
	}

	// Race the drain against the shutdown bound; whichever finishes first
	// proceeds.
	drainCtx, cancel := context.WithTimeout(ctx, c.timeout)
	drained := c.tracker.Wait(drainCtx)
	cancel()

	if forced := c.tracker.ForceDisconnectAll(); forced > 0 {
		c.logger.Warn("forced transport disconnects", "count", forced)
	}

	c.snapshotSessions(context.WithoutCancel(ctx))

	closeErr := transport.Close()
	if closeErr != nil {
		c.tracker.ForceDisconnectAll()
	}

	elapsed := c.now().Sub(start)
	within := elapsed <= c.timeout
	c.logger.Info("shutdown finished",
		"elapsed", elapsed,
		"within_timeout", within,
		"drained", drained,
		"transport_close_error", closeErr != nil)
	if c.metrics != nil {
		c.metrics.ShutdownDuration.Observe(elapsed.Seconds())
	}
	return closeErr
}

// snapshotSessions persists a final audit record for every still-active
// session. Failures are logged and skipped, never raised.
func (c *Coordinator) snapshotSessions(ctx context.Context) {
	if c.manager == nil {
		return
	}
	ids, err := c.manager.ActiveIDs(ctx)
	if err != nil {
		c.logger.Error("shutdown snapshot enumeration failed", "error", err)
		return
	}
	for _, id := range ids {
		if err := c.manager.Snapshot(ctx, id); err != nil {
			c.logger.Error("shutdown snapshot failed", "session_id", id, "error", err)
		}
	}
}
