// Package engine runs the poller/dispatcher/worker pipeline that turns due
// documents in the job store into handler executions, and exposes the
// create/schedule/every/now/cancel facade on top of the builder and store
// packages.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agendahq/agenda-go/internal/builder"
	"github.com/agendahq/agenda-go/internal/handler"
	"github.com/agendahq/agenda-go/internal/metrics"
	"github.com/agendahq/agenda-go/internal/model"
	"github.com/agendahq/agenda-go/internal/store"
)

// Engine is the top-level scheduler. One Engine owns one poller, one
// dispatcher, and a permit-gated pool of job-execution goroutines; start
// and stop are idempotent and safe to call from any goroutine.
type Engine struct {
	store    store.Store
	registry *handler.Registry
	logger   *slog.Logger
	cfg      Config

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	queue   *delayQueue
	permits *permits

	enqueuedMu sync.Mutex
	enqueued   map[string]struct{}

	refill chan struct{}
}

// New constructs an Engine. The store and registry must be ready for use;
// New does not start any background work, Start does.
func New(s store.Store, registry *handler.Registry, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		store:    s,
		registry: registry,
		logger:   logger,
		cfg:      cfg,
		queue:    newDelayQueue(),
		permits:  newPermits(cfg.MaxConcurrency, cfg.DefaultConcurrency),
		enqueued: make(map[string]struct{}),
		refill:   make(chan struct{}, 1),
	}
}

// Start validates configuration, then launches the poller, dispatcher, and
// stale-lease monitor. Calling Start twice without an intervening Stop is
// a no-op.
func (e *Engine) Start(ctx context.Context) error {
	if e.cfg.ProcessEvery <= 0 {
		return fmt.Errorf("%w: processEvery must be positive", model.ErrInvalidArgument)
	}
	if e.cfg.DefaultLockLifetime <= 0 {
		return fmt.Errorf("%w: defaultLockLifetime must be positive", model.ErrInvalidArgument)
	}
	if e.cfg.WorkerID == "" {
		return fmt.Errorf("%w: workerID must not be blank", model.ErrInvalidArgument)
	}
	if !e.started.CompareAndSwap(false, true) {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	p := newPoller(e)
	d := &dispatcher{engine: e}
	mon := newMonitor(e, e.cfg.ProcessEvery*6)

	e.wg.Add(3)
	go p.run(runCtx, &e.wg)
	go d.run(runCtx, &e.wg)
	go mon.run(runCtx, &e.wg)

	metrics.EngineStartTime.Set(float64(time.Now().Unix()))
	e.logger.Info("engine started",
		"worker_id", e.cfg.WorkerID,
		"process_every", e.cfg.ProcessEvery,
		"max_concurrency", e.cfg.MaxConcurrency,
	)
	return nil
}

// Stop cancels the poller, dispatcher, and in-flight job goroutines and
// waits for them to drain, up to one lock lifetime, before returning.
// Calling Stop when the engine isn't started is a no-op.
func (e *Engine) Stop() {
	if !e.started.CompareAndSwap(true, false) {
		return
	}
	e.cancel()
	metrics.EngineStopsTotal.Inc()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	grace := e.cfg.DefaultLockLifetime
	select {
	case <-done:
		e.logger.Info("engine stopped")
	case <-time.After(grace):
		e.logger.Warn("engine stop: grace period elapsed, in-flight jobs may still be running", "grace", grace)
	}
}

func (e *Engine) markEnqueued(id string) bool {
	e.enqueuedMu.Lock()
	defer e.enqueuedMu.Unlock()
	if _, ok := e.enqueued[id]; ok {
		return false
	}
	e.enqueued[id] = struct{}{}
	return true
}

func (e *Engine) unmarkEnqueued(id string) {
	e.enqueuedMu.Lock()
	delete(e.enqueued, id)
	e.enqueuedMu.Unlock()
}

func (e *Engine) enqueuedCount() int {
	e.enqueuedMu.Lock()
	defer e.enqueuedMu.Unlock()
	return len(e.enqueued)
}

func (e *Engine) signalRefill() {
	select {
	case e.refill <- struct{}{}:
	default:
	}
}

// Create starts a fluent job-spec builder for name, matching the public
// create()/schedule()/every() facade.
func (e *Engine) Create(name string, data any) *builder.Builder {
	return builder.New(e.store, name, data)
}

// Schedule is create(name, data).Schedule(at), provided because it's the
// single most common one-shot pattern.
func (e *Engine) Schedule(name string, at time.Time, data any) *builder.Builder {
	return e.Create(name, data).Schedule(at)
}

// Every registers a recurring SINGLE job under name. interval is either a
// schedule string (cron, "AT HH:mm", or human interval) or a plain int
// number of seconds.
func (e *Engine) Every(ctx context.Context, name string, interval any, data any, opts model.EveryOptions) (model.SaveOutcome, error) {
	b := e.Create(name, data).Single()
	switch v := interval.(type) {
	case string:
		b = b.RepeatEvery(v, opts)
	case int:
		b = b.RepeatEverySeconds(v, opts)
	default:
		return 0, fmt.Errorf("%w: interval must be a schedule string or an int number of seconds", model.ErrInvalidArgument)
	}
	return b.Save(ctx)
}

// Now schedules name to run immediately, as a one-off NORMAL job.
func (e *Engine) Now(ctx context.Context, name string, data any) (model.SaveOutcome, error) {
	return e.Schedule(name, time.Now(), data).Save(ctx)
}

// Cancel disables or deletes documents matching query, per spec's
// cancel(query, options) operation.
func (e *Engine) Cancel(ctx context.Context, query model.CancelQuery, opts model.CancelOptions) (model.CancelResult, error) {
	if query.Empty() {
		return model.CancelResult{}, fmt.Errorf("%w: cancel query must set name, uniqueKey, or unique", model.ErrInvalidArgument)
	}
	if opts.Limit <= 0 {
		return model.CancelResult{}, fmt.Errorf("%w: cancel limit must be positive", model.ErrInvalidArgument)
	}

	switch opts.Mode {
	case model.Delete:
		n, err := e.store.DeleteByQuery(ctx, query, opts.Limit)
		return model.CancelResult{Matched: n, Deleted: n}, err
	default:
		n, err := e.store.DisableByQuery(ctx, query, opts.Limit)
		return model.CancelResult{Matched: n, Modified: n}, err
	}
}
