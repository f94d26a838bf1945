// Package store persists ScheduledJob documents and implements the atomic
// claim/lock protocol that lets multiple scheduler nodes share one
// collection safely. The concrete implementation here targets Postgres —
// "document-oriented" in spec terms means jsonb columns for the job's free
// -form payload and unique-selector fields, not a particular database
// product.
package store

import (
	"context"
	"time"

	"github.com/agendahq/agenda-go/internal/model"
)

// Store is the job store's full surface, used by the builder (Save), the
// engine (claim/mark/lookup), and the public cancel operation.
type Store interface {
	Save(ctx context.Context, spec *model.JobSpec) (model.SaveOutcome, error)

	ClaimDueJobs(ctx context.Context, windowEnd time.Time, batchSize int, lockLifetime time.Duration, workerID string) ([]*model.ScheduledJob, error)
	MarkSuccess(ctx context.Context, id, workerID string, startedAt, finishedAt time.Time, nextRunAt *time.Time) error
	MarkFailure(ctx context.Context, id, workerID string, failedAt time.Time, nextRunAt *time.Time) error

	DisableByQuery(ctx context.Context, query model.CancelQuery, limit int) (int, error)
	DeleteByQuery(ctx context.Context, query model.CancelQuery, limit int) (int, error)

	FindSingleByName(ctx context.Context, name string) (*model.ScheduledJob, error)
	FindNormalByNameAndUniqueKey(ctx context.Context, name, uniqueKey string) (*model.ScheduledJob, error)
	DeleteByID(ctx context.Context, id string) error

	// CountStaleLocks reports how many documents currently hold a lease
	// that expired before asOf — used only for the observability monitor,
	// never to drive a claim decision.
	CountStaleLocks(ctx context.Context, asOf time.Time) (int, error)
}
