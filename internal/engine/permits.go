package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// permits gates how many handler invocations may run at once, at two
// levels: a global ceiling across the whole engine and a per-handler-name
// ceiling so one noisy job can't starve the rest. Both are acquired before
// a job is submitted to run and released together when it finishes.
type permits struct {
	global         *semaphore.Weighted
	maxConcurrency int64

	mu                 sync.Mutex
	byName             map[string]*semaphore.Weighted
	defaultConcurrency int64

	running atomic.Int64
}

func newPermits(maxConcurrency, defaultConcurrency int) *permits {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	if defaultConcurrency <= 0 {
		defaultConcurrency = 1
	}
	return &permits{
		global:             semaphore.NewWeighted(int64(maxConcurrency)),
		maxConcurrency:     int64(maxConcurrency),
		byName:             make(map[string]*semaphore.Weighted),
		defaultConcurrency: int64(defaultConcurrency),
	}
}

func (p *permits) nameSem(name string) *semaphore.Weighted {
	p.mu.Lock()
	defer p.mu.Unlock()
	sem, ok := p.byName[name]
	if !ok {
		sem = semaphore.NewWeighted(p.defaultConcurrency)
		p.byName[name] = sem
	}
	return sem
}

// acquire blocks until both permits are held, or ctx is cancelled — the
// only way submission is ever interrupted is engine shutdown.
func (p *permits) acquire(ctx context.Context, name string) error {
	if err := p.global.Acquire(ctx, 1); err != nil {
		return err
	}
	sem := p.nameSem(name)
	if err := sem.Acquire(ctx, 1); err != nil {
		p.global.Release(1)
		return err
	}
	p.running.Add(1)
	return nil
}

func (p *permits) release(name string) {
	p.running.Add(-1)
	p.nameSem(name).Release(1)
	p.global.Release(1)
}

func (p *permits) runningCount() int64 {
	return p.running.Load()
}
