package engine

import (
	"context"
	"sync"
	"time"

	"github.com/agendahq/agenda-go/internal/metrics"
)

// monitor periodically reports how many documents are holding an expired
// lease. Unlike the teacher's reaper it never reschedules or fails a job
// itself — a lease only ever changes hands through claimDueJobs picking it
// back up, so the monitor stays purely observational.
type monitor struct {
	engine   *Engine
	interval time.Duration
}

func newMonitor(e *Engine, interval time.Duration) *monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &monitor{engine: e, interval: interval}
}

func (m *monitor) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *monitor) tick(ctx context.Context) {
	e := m.engine
	n, err := e.store.CountStaleLocks(ctx, time.Now())
	if err != nil {
		e.logger.Warn("monitor: count stale locks failed", "error", err)
		return
	}
	metrics.StaleLocks.Set(float64(n))
	if n > 0 {
		e.logger.Warn("stale leases detected", "count", n)
	}
}
