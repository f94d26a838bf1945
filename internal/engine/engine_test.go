package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/agendahq/agenda-go/internal/handler"
	"github.com/agendahq/agenda-go/internal/model"
	"github.com/google/uuid"
)

// fakeStore is an in-memory store.Store used to exercise the engine's
// claim/run/mark-outcome pipeline without a database.
type fakeStore struct {
	mu   sync.Mutex
	jobs map[string]*model.ScheduledJob
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]*model.ScheduledJob)}
}

func (s *fakeStore) Save(_ context.Context, spec *model.JobSpec) (model.SaveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.jobs[id] = &model.ScheduledJob{
		ID: id, Name: spec.Name, Type: spec.Type, UniqueKey: spec.UniqueKey, Unique: spec.Unique,
		NextRunAt: spec.NextRunAt, RepeatInterval: spec.RepeatInterval, RepeatTimezone: spec.RepeatTimezone,
		Priority: spec.Priority, Data: toMap(spec.Data), CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	return model.Created, nil
}

func toMap(data any) map[string]any {
	if m, ok := data.(map[string]any); ok {
		return m
	}
	return nil
}

func (s *fakeStore) ClaimDueJobs(_ context.Context, windowEnd time.Time, batchSize int, lockLifetime time.Duration, workerID string) ([]*model.ScheduledJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.ScheduledJob
	now := time.Now()
	for _, j := range s.jobs {
		if len(out) >= batchSize {
			break
		}
		if j.NextRunAt == nil || j.NextRunAt.After(windowEnd) {
			continue
		}
		if j.LockUntil != nil && j.LockUntil.After(now) {
			continue
		}
		until := now.Add(lockLifetime)
		j.LockedAt, j.LockUntil, j.LockedBy = &now, &until, workerID
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStore) MarkSuccess(_ context.Context, id, workerID string, _, finishedAt time.Time, nextRunAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.LockedBy != workerID {
		return model.ErrLeaseLost
	}
	j.LastFinishedAt, j.NextRunAt = &finishedAt, nextRunAt
	j.LockedAt, j.LockUntil, j.LockedBy = nil, nil, ""
	j.FailCount = 0
	return nil
}

func (s *fakeStore) MarkFailure(_ context.Context, id, workerID string, failedAt time.Time, nextRunAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.LockedBy != workerID {
		return model.ErrLeaseLost
	}
	j.FailedAt, j.NextRunAt = &failedAt, nextRunAt
	j.FailCount++
	j.LockedAt, j.LockUntil, j.LockedBy = nil, nil, ""
	return nil
}

func (s *fakeStore) DisableByQuery(_ context.Context, query model.CancelQuery, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if n >= limit {
			break
		}
		if query.Name != "" && j.Name != query.Name {
			continue
		}
		j.NextRunAt = nil
		n++
	}
	return n, nil
}

func (s *fakeStore) DeleteByQuery(_ context.Context, query model.CancelQuery, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, j := range s.jobs {
		if n >= limit {
			break
		}
		if query.Name != "" && j.Name != query.Name {
			continue
		}
		delete(s.jobs, id)
		n++
	}
	return n, nil
}

func (s *fakeStore) FindSingleByName(_ context.Context, name string) (*model.ScheduledJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.Name == name && j.Type == model.Single {
			return j, nil
		}
	}
	return nil, model.ErrJobNotFound
}

func (s *fakeStore) FindNormalByNameAndUniqueKey(_ context.Context, name, uniqueKey string) (*model.ScheduledJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.Name == name && j.Type == model.Normal && j.UniqueKey == uniqueKey {
			return j, nil
		}
	}
	return nil, model.ErrJobNotFound
}

func (s *fakeStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return model.ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *fakeStore) CountStaleLocks(_ context.Context, asOf time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if j.LockUntil != nil && !j.LockUntil.After(asOf) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) jobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// countingHandler records every invocation so tests can assert the engine
// actually ran it.
type countingHandler struct {
	name string
	mu   sync.Mutex
	runs int
	err  error
}

func (h *countingHandler) Name() string { return h.name }
func (h *countingHandler) Execute(_ context.Context, _ any) error {
	h.mu.Lock()
	h.runs++
	h.mu.Unlock()
	return h.err
}
func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runs
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, nil))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestEngine_ClaimsRunsAndMarksSuccess(t *testing.T) {
	s := newFakeStore()
	h := &countingHandler{name: "send-report"}
	reg, err := handler.New(h)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	due := time.Now().Add(-time.Second)
	s.jobs["job-1"] = &model.ScheduledJob{ID: "job-1", Name: "send-report", Type: model.Single, NextRunAt: &due}

	e := New(s, reg, testLogger(), Config{
		ProcessEvery: 10 * time.Millisecond, DefaultLockLifetime: time.Minute,
		MaxConcurrency: 4, DefaultConcurrency: 2, BatchSize: 10, WorkerID: "test-worker",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for h.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.count() == 0 {
		t.Fatal("handler was never invoked")
	}

	var finished *time.Time
	var lockedBy string
	for time.Now().Before(deadline) {
		s.mu.Lock()
		finished, lockedBy = s.jobs["job-1"].LastFinishedAt, s.jobs["job-1"].LockedBy
		s.mu.Unlock()
		if finished != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if finished == nil || lockedBy != "" {
		t.Fatalf("expected job marked success with lease cleared, got lastFinishedAt=%v lockedBy=%q", finished, lockedBy)
	}
}

func TestEngine_StartIsIdempotent(t *testing.T) {
	s := newFakeStore()
	reg, _ := handler.New()
	e := New(s, reg, testLogger(), Config{
		ProcessEvery: time.Second, DefaultLockLifetime: time.Minute, WorkerID: "w",
	})
	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := e.Start(ctx); err != nil {
		t.Fatalf("second start should be a no-op, got: %v", err)
	}
	e.Stop()
	e.Stop() // idempotent
}

func TestEngine_StartRejectsMissingWorkerID(t *testing.T) {
	s := newFakeStore()
	reg, _ := handler.New()
	e := New(s, reg, testLogger(), Config{ProcessEvery: time.Second, DefaultLockLifetime: time.Minute})
	if err := e.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing worker id")
	}
}

func TestEngine_CancelRequiresNonEmptyQuery(t *testing.T) {
	s := newFakeStore()
	reg, _ := handler.New()
	e := New(s, reg, testLogger(), Config{WorkerID: "w"})
	_, err := e.Cancel(context.Background(), model.CancelQuery{}, model.CancelOptions{Limit: 10})
	if err == nil {
		t.Fatal("expected error for empty cancel query")
	}
}

func TestEngine_CancelDeleteRemovesMatches(t *testing.T) {
	s := newFakeStore()
	s.jobs["a"] = &model.ScheduledJob{ID: "a", Name: "cleanup"}
	s.jobs["b"] = &model.ScheduledJob{ID: "b", Name: "other"}
	reg, _ := handler.New()
	e := New(s, reg, testLogger(), Config{WorkerID: "w"})

	result, err := e.Cancel(context.Background(), model.CancelQuery{Name: "cleanup"}, model.CancelOptions{Mode: model.Delete, Limit: 10})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1", result.Deleted)
	}
	if s.jobCount() != 1 {
		t.Fatalf("jobCount = %d, want 1", s.jobCount())
	}
}

func TestEngine_NowSchedulesImmediateRun(t *testing.T) {
	s := newFakeStore()
	reg, _ := handler.New()
	e := New(s, reg, testLogger(), Config{WorkerID: "w"})

	outcome, err := e.Now(context.Background(), "ping", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("now: %v", err)
	}
	if outcome != model.Created {
		t.Fatalf("outcome = %v, want Created", outcome)
	}
	if s.jobCount() != 1 {
		t.Fatalf("jobCount = %d, want 1", s.jobCount())
	}
}

func TestEngine_FailedRunRetriesThenGivesUpAtMaxRetryCount(t *testing.T) {
	s := newFakeStore()
	h := &countingHandler{name: "flaky", err: errors.New("boom")}
	reg, err := handler.New(h)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	due := time.Now().Add(-time.Second)
	s.jobs["job-1"] = &model.ScheduledJob{ID: "job-1", Name: "flaky", Type: model.Single, NextRunAt: &due}

	e := New(s, reg, testLogger(), Config{
		ProcessEvery: 10 * time.Millisecond, DefaultLockLifetime: time.Minute,
		MaxConcurrency: 4, DefaultConcurrency: 2, BatchSize: 10, WorkerID: "test-worker",
		MaxRetryCount: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for h.count() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.mu.Lock()
	job := s.jobs["job-1"]
	failCount := job.FailCount
	nextRunAt := job.NextRunAt
	s.mu.Unlock()
	if failCount != 1 {
		t.Fatalf("failCount after first run = %d, want 1", failCount)
	}
	if nextRunAt == nil {
		t.Fatal("expected a retry to be scheduled after the first failure")
	}

	// Force the retry due immediately instead of waiting out the backoff.
	s.mu.Lock()
	now := time.Now().Add(-time.Second)
	s.jobs["job-1"].NextRunAt = &now
	s.mu.Unlock()

	deadline = time.Now().Add(2 * time.Second)
	for h.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.mu.Lock()
	job = s.jobs["job-1"]
	failCount = job.FailCount
	nextRunAt = job.NextRunAt
	s.mu.Unlock()
	if failCount != 2 {
		t.Fatalf("failCount after second run = %d, want 2", failCount)
	}
	if nextRunAt != nil {
		t.Fatalf("expected no further retry once MaxRetryCount is reached, got %v", nextRunAt)
	}
}

func TestEngine_EveryRejectsUnsupportedIntervalType(t *testing.T) {
	s := newFakeStore()
	reg, _ := handler.New()
	e := New(s, reg, testLogger(), Config{WorkerID: "w"})

	_, err := e.Every(context.Background(), "tick", 3.14, nil, model.EveryOptions{})
	if err == nil {
		t.Fatal("expected error for float interval")
	}
}
