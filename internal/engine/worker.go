package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/agendahq/agenda-go/internal/handler"
	"github.com/agendahq/agenda-go/internal/metrics"
	"github.com/agendahq/agenda-go/internal/model"
	"github.com/agendahq/agenda-go/internal/schedule"
)

// runJob executes one claimed document: look up its handler, decode its
// payload, run it, and record the outcome. Permit acquisition and release
// happen in the dispatcher; runJob only concerns itself with the job
// itself.
func (e *Engine) runJob(ctx context.Context, job *model.ScheduledJob) {
	start := time.Now()
	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()
	metrics.JobPickupLatency.Observe(start.Sub(jobDueAt(job)).Seconds())

	h, err := e.registry.Lookup(job.Name)
	if err != nil {
		e.logger.Error("no handler registered", "job", job.Name, "id", job.ID, "error", err)
		e.recordFailure(ctx, job, start, err)
		return
	}

	payload, err := handler.Decode(h, job.Data)
	if err != nil {
		e.logger.Error("payload decode failed", "job", job.Name, "id", job.ID, "error", err)
		e.recordFailure(ctx, job, start, err)
		return
	}

	runErr := h.Execute(ctx, payload)
	if runErr != nil {
		e.logger.Error("job execution failed", "job", job.Name, "id", job.ID, "error", runErr)
		e.recordFailure(ctx, job, start, runErr)
		return
	}

	e.recordSuccess(ctx, job, start)
}

func (e *Engine) recordSuccess(ctx context.Context, job *model.ScheduledJob, start time.Time) {
	finished := time.Now()
	metrics.JobExecutionDuration.WithLabelValues("success").Observe(finished.Sub(start).Seconds())
	metrics.JobsCompletedTotal.WithLabelValues("success").Inc()

	nextRunAt, err := schedule.ComputeNextRunAt(job.RepeatInterval, job.RepeatTimezone, job.NextRunAt, &finished)
	if err != nil {
		e.logger.Error("recompute schedule failed, disabling job", "job", job.Name, "id", job.ID, "error", err)
		nextRunAt = nil
	}

	if nextRunAt == nil && e.cfg.CleanupFinishedJobs {
		if err := e.store.DeleteByID(ctx, job.ID); err != nil && !errors.Is(err, model.ErrJobNotFound) {
			e.logger.Error("cleanup finished job failed", "job", job.Name, "id", job.ID, "error", err)
		}
		return
	}

	if err := e.store.MarkSuccess(ctx, job.ID, e.cfg.WorkerID, start, finished, nextRunAt); err != nil {
		e.logWriteOutcome("mark success", job, err)
	}
}

func (e *Engine) recordFailure(ctx context.Context, job *model.ScheduledJob, start time.Time, cause error) {
	finished := time.Now()
	metrics.JobExecutionDuration.WithLabelValues("failure").Observe(finished.Sub(start).Seconds())
	metrics.JobsCompletedTotal.WithLabelValues("failure").Inc()

	attempt := job.FailCount + 1
	var nextRunAt *time.Time
	if e.cfg.MaxRetryCount <= 0 || attempt < e.cfg.MaxRetryCount {
		t := finished.Add(retryDelay(attempt))
		nextRunAt = &t
	}

	if err := e.store.MarkFailure(ctx, job.ID, e.cfg.WorkerID, finished, nextRunAt); err != nil {
		e.logWriteOutcome("mark failure", job, err)
	}
	_ = cause
}

func (e *Engine) logWriteOutcome(op string, job *model.ScheduledJob, err error) {
	if errors.Is(err, model.ErrLeaseLost) {
		e.logger.Warn(op+": lease lost, another worker already reclaimed the job", "job", job.Name, "id", job.ID)
		return
	}
	e.logger.Error(op+" failed", "job", job.Name, "id", job.ID, slog.Any("error", err))
}

func jobDueAt(job *model.ScheduledJob) time.Time {
	if job.NextRunAt != nil {
		return *job.NextRunAt
	}
	return time.Now()
}
