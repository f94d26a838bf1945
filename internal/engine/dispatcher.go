package engine

import (
	"context"
	"sync"

	"github.com/agendahq/agenda-go/internal/model"
)

// dispatcher drains the delay queue in due-time order and hands each job
// to a goroutine once both the global and per-name permits are free. This
// is the engine's worker pool: capacity is bounded by permits, not by a
// fixed goroutine count, since job durations vary too widely for a
// preallocated pool to size well.
type dispatcher struct {
	engine *Engine
}

func (d *dispatcher) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	e := d.engine
	for {
		job, err := e.queue.pop(ctx)
		if err != nil {
			return
		}
		e.unmarkEnqueued(job.ID)

		if err := e.permits.acquire(ctx, job.Name); err != nil {
			return
		}

		wg.Add(1)
		go d.execute(ctx, wg, job)
	}
}

func (d *dispatcher) execute(ctx context.Context, wg *sync.WaitGroup, job *model.ScheduledJob) {
	e := d.engine
	defer wg.Done()
	defer e.permits.release(job.Name)
	defer e.signalRefill()
	e.runJob(ctx, job)
}
