package engine

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/agendahq/agenda-go/internal/model"
)

// delayQueue holds claimed-but-not-yet-running jobs ordered by due time, so
// the dispatcher can hand the engine's fixed worker capacity to whichever
// claimed job is due soonest rather than strictly FIFO. Grounded on the
// timer-reset run loop of the cnotch/scheduler package, backed here by
// container/heap instead of that package's single-job min-heap.
type delayQueue struct {
	mu     sync.Mutex
	items  jobHeap
	notify chan struct{}
}

func newDelayQueue() *delayQueue {
	return &delayQueue{notify: make(chan struct{}, 1)}
}

func (q *delayQueue) push(job *model.ScheduledJob) {
	due := time.Now()
	if job.NextRunAt != nil {
		due = *job.NextRunAt
	}
	q.mu.Lock()
	heap.Push(&q.items, &jobHeapItem{job: job, dueAt: due})
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *delayQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// pop blocks until the earliest-due item's time arrives or ctx is done.
func (q *delayQueue) pop(ctx context.Context) (*model.ScheduledJob, error) {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-q.notify:
				continue
			}
		}

		wait := q.items[0].dueAt.Sub(time.Now())
		if wait <= 0 {
			item := heap.Pop(&q.items).(*jobHeapItem)
			q.mu.Unlock()
			return item.job, nil
		}
		q.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		case <-q.notify:
			timer.Stop()
		}
	}
}

type jobHeapItem struct {
	job   *model.ScheduledJob
	dueAt time.Time
	index int
}

type jobHeap []*jobHeapItem

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].dueAt.Equal(h[j].dueAt) {
		return h[i].job.Priority > h[j].job.Priority
	}
	return h[i].dueAt.Before(h[j].dueAt)
}
func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *jobHeap) Push(x any) {
	item := x.(*jobHeapItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
