package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/agendahq/agenda-go/internal/metrics"
)

// poller is the engine's only writer of the claim cursor. Each cycle it
// widens the due-window to [cursor, cursor+processEvery], claims what
// fits in the remaining lock-limit budget, advances the cursor, and sleeps
// until the next cycle — or, while the in-flight budget is saturated
// (backlog), retries on a short fixed interval instead of waiting out a
// full processEvery.
type poller struct {
	engine *Engine

	mu     sync.Mutex
	cursor time.Time

	consecutiveFailures int
}

func newPoller(e *Engine) *poller {
	return &poller{engine: e, cursor: time.Now()}
}

func (p *poller) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	e := p.engine

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		windowEnd := p.advanceWindow()
		budget := p.remainingBudget()

		backlog := e.cfg.LockLimit > 0 && budget <= 0
		if backlog {
			metrics.BacklogCycles.Inc()
		}
		if !backlog {
			exhausted, err := p.claimRound(ctx, windowEnd, budget)
			if err != nil {
				p.consecutiveFailures++
				e.logger.Error("poller: claim round failed", "error", err, "consecutive_failures", p.consecutiveFailures)
				if p.consecutiveFailures >= 30 {
					e.logger.Error("poller: too many consecutive failures, stopping engine")
					go e.Stop()
					return
				}
				if !sleep(ctx, pollBackoff(p.consecutiveFailures)) {
					return
				}
				continue
			}
			p.consecutiveFailures = 0
			backlog = exhausted
		}

		var wait time.Duration
		if backlog {
			wait = 200 * time.Millisecond
		} else {
			wait = e.cfg.ProcessEvery
		}
		if !p.sleepOrRefill(ctx, wait) {
			return
		}
	}
}

func (p *poller) advanceWindow() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	windowEnd := p.cursor.Add(p.engine.cfg.ProcessEvery)
	p.cursor = windowEnd
	return windowEnd
}

func (p *poller) remainingBudget() int {
	e := p.engine
	if e.cfg.LockLimit <= 0 {
		return math.MaxInt32
	}
	inFlight := e.enqueuedCount() + int(e.permits.runningCount())
	remaining := e.cfg.LockLimit - inFlight
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// claimRound issues one or more claimDueJobs calls in batchSize chunks
// until either the store returns fewer jobs than requested (window
// exhausted) or the remaining budget reaches zero (backlog).
func (p *poller) claimRound(ctx context.Context, windowEnd time.Time, budget int) (exhaustedBudget bool, err error) {
	e := p.engine
	remaining := budget
	for remaining > 0 {
		batch := e.cfg.BatchSize
		if batch > remaining {
			batch = remaining
		}
		jobs, err := e.store.ClaimDueJobs(ctx, windowEnd, batch, e.cfg.DefaultLockLifetime, e.cfg.WorkerID)
		if err != nil {
			return false, err
		}
		for _, job := range jobs {
			metrics.ClaimedTotal.WithLabelValues(job.Name).Inc()
			if e.markEnqueued(job.ID) {
				e.queue.push(job)
			}
		}
		if len(jobs) < batch {
			return false, nil
		}
		remaining -= len(jobs)
	}
	return true, nil
}

// sleepOrRefill waits out the given duration, but wakes early if dispatcher
// capacity frees up — relevant only while backlogged, harmless otherwise.
func (p *poller) sleepOrRefill(ctx context.Context, d time.Duration) bool {
	e := p.engine
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-e.refill:
		return true
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
