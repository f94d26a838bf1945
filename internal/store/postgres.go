package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agendahq/agenda-go/internal/model"
)

// PostgresStore is the default Store implementation, adapted from the
// teacher's FOR UPDATE SKIP LOCKED claim queries and upsert-by-unique-key
// pattern in internal/infrastructure/postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-connected pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the table and the RequiredIndexes if absent.
// cmd/agenda calls it at startup only when ensure-indexes-on-startup is
// set; cmd/seed calls it on every run.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, CreateTableSQL); err != nil {
		return fmt.Errorf("create scheduled_jobs table: %w", err)
	}
	for _, stmt := range DDL() {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Save implements the spec §4.2 save() contract.
func (s *PostgresStore) Save(ctx context.Context, spec *model.JobSpec) (model.SaveOutcome, error) {
	if spec.Type == model.Normal && spec.UniqueKey == "" {
		if err := s.insert(ctx, spec); err != nil {
			return 0, err
		}
		return model.Created, nil
	}
	return s.upsert(ctx, spec)
}

func (s *PostgresStore) insert(ctx context.Context, spec *model.JobSpec) error {
	dataJSON, err := marshalData(spec.Data)
	if err != nil {
		return err
	}
	uniqueJSON, err := marshalUnique(spec.Unique)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO scheduled_jobs (
			name, type, unique_key, unique_selector, next_run_at,
			repeat_interval, repeat_timezone, priority, data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		spec.Name, string(spec.Type), spec.UniqueKey, uniqueJSON, spec.NextRunAt,
		spec.RepeatInterval, spec.RepeatTimezone, int(spec.Priority), dataJSON,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// upsert implements the SINGLE-by-name and NORMAL-with-uniqueKey save
// paths: find the existing document under a row lock, then update it in
// place or insert a new one, inside one transaction so concurrent savers
// never race past each other.
func (s *PostgresStore) upsert(ctx context.Context, spec *model.JobSpec) (model.SaveOutcome, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existingID string
	var selErr error
	if spec.Type == model.Single {
		selErr = tx.QueryRow(ctx,
			`SELECT id FROM scheduled_jobs WHERE name = $1 AND type = 'SINGLE' FOR UPDATE`,
			spec.Name,
		).Scan(&existingID)
	} else {
		selErr = tx.QueryRow(ctx,
			`SELECT id FROM scheduled_jobs WHERE name = $1 AND type = 'NORMAL' AND unique_key = $2 FOR UPDATE`,
			spec.Name, spec.UniqueKey,
		).Scan(&existingID)
	}

	dataJSON, err := marshalData(spec.Data)
	if err != nil {
		return 0, err
	}
	uniqueJSON, err := marshalUnique(spec.Unique)
	if err != nil {
		return 0, err
	}

	outcome := model.Updated
	switch {
	case errors.Is(selErr, pgx.ErrNoRows):
		outcome = model.Created
		_, err = tx.Exec(ctx, `
			INSERT INTO scheduled_jobs (
				name, type, unique_key, unique_selector, next_run_at,
				repeat_interval, repeat_timezone, priority, data
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			spec.Name, string(spec.Type), spec.UniqueKey, uniqueJSON, spec.NextRunAt,
			spec.RepeatInterval, spec.RepeatTimezone, int(spec.Priority), dataJSON,
		)
	case selErr != nil:
		return 0, fmt.Errorf("find existing job: %w", selErr)
	default:
		_, err = tx.Exec(ctx, `
			UPDATE scheduled_jobs SET
				unique_selector = $2, next_run_at = $3, repeat_interval = $4,
				repeat_timezone = $5, priority = $6, data = $7, updated_at = now()
			WHERE id = $1`,
			existingID, uniqueJSON, spec.NextRunAt, spec.RepeatInterval,
			spec.RepeatTimezone, int(spec.Priority), dataJSON,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("save job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return outcome, nil
}

// ClaimDueJobs implements the spec §4.2 core concurrency primitive: up to
// batchSize independent atomic find-one-and-update rounds, so a
// higher-priority job released mid-batch is still observed by the next
// iteration.
func (s *PostgresStore) ClaimDueJobs(ctx context.Context, windowEnd time.Time, batchSize int, lockLifetime time.Duration, workerID string) ([]*model.ScheduledJob, error) {
	if batchSize <= 0 {
		return nil, nil
	}
	if lockLifetime <= 0 {
		return nil, fmt.Errorf("%w: lockLifetime must be positive", model.ErrInvalidArgument)
	}
	if workerID == "" {
		return nil, fmt.Errorf("%w: workerID must not be blank", model.ErrInvalidArgument)
	}

	jobs := make([]*model.ScheduledJob, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		job, err := s.claimOne(ctx, windowEnd, lockLifetime, workerID)
		if errors.Is(err, model.ErrJobNotFound) {
			break
		}
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *PostgresStore) claimOne(ctx context.Context, windowEnd time.Time, lockLifetime time.Duration, workerID string) (*model.ScheduledJob, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE scheduled_jobs
		SET locked_at = now(), lock_until = now() + ($1 * interval '1 second'), locked_by = $2, updated_at = now()
		WHERE id = (
			SELECT id FROM scheduled_jobs
			WHERE next_run_at IS NOT NULL
			  AND next_run_at <= $3
			  AND (lock_until IS NULL OR lock_until <= now())
			ORDER BY next_run_at ASC, priority DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+selectColumns,
		lockLifetime.Seconds(), workerID, windowEnd,
	)
	return scanJob(row)
}

// MarkSuccess implements the spec §4.2 markSuccess contract: the
// lockedBy=workerID guard rejects a write from a worker whose lease was
// already stolen by lease expiry.
func (s *PostgresStore) MarkSuccess(ctx context.Context, id, workerID string, startedAt, finishedAt time.Time, nextRunAt *time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scheduled_jobs SET
			last_run_at = $3, last_finished_at = $4, next_run_at = $5,
			locked_at = NULL, lock_until = NULL, locked_by = '',
			fail_count = 0, failed_at = NULL, updated_at = now()
		WHERE id = $1 AND locked_by = $2`,
		id, workerID, startedAt, finishedAt, nextRunAt,
	)
	if err != nil {
		return fmt.Errorf("mark success: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLeaseLost
	}
	return nil
}

// MarkFailure implements the spec §4.2 markFailure contract.
func (s *PostgresStore) MarkFailure(ctx context.Context, id, workerID string, failedAt time.Time, nextRunAt *time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scheduled_jobs SET
			fail_count = fail_count + 1, failed_at = $3, next_run_at = $4,
			locked_at = NULL, lock_until = NULL, locked_by = '', updated_at = now()
		WHERE id = $1 AND locked_by = $2`,
		id, workerID, failedAt, nextRunAt,
	)
	if err != nil {
		return fmt.Errorf("mark failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLeaseLost
	}
	return nil
}

// DisableByQuery implements cancel(DISABLE): unset the schedule fields on
// matching documents rather than removing them.
func (s *PostgresStore) DisableByQuery(ctx context.Context, query model.CancelQuery, limit int) (int, error) {
	where, args, err := buildCancelWhere(query)
	if err != nil {
		return 0, err
	}
	args = append(args, limit)
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE scheduled_jobs SET
			next_run_at = NULL, repeat_interval = '', repeat_timezone = '',
			locked_at = NULL, lock_until = NULL, locked_by = '', updated_at = now()
		WHERE id IN (
			SELECT id FROM scheduled_jobs WHERE %s
			ORDER BY next_run_at ASC, priority DESC
			LIMIT $%d
		)`, where, len(args)), args...)
	if err != nil {
		return 0, fmt.Errorf("disable by query: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteByQuery implements cancel(DELETE).
func (s *PostgresStore) DeleteByQuery(ctx context.Context, query model.CancelQuery, limit int) (int, error) {
	where, args, err := buildCancelWhere(query)
	if err != nil {
		return 0, err
	}
	args = append(args, limit)
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
		DELETE FROM scheduled_jobs
		WHERE id IN (
			SELECT id FROM scheduled_jobs WHERE %s
			ORDER BY next_run_at ASC, priority DESC
			LIMIT $%d
		)`, where, len(args)), args...)
	if err != nil {
		return 0, fmt.Errorf("delete by query: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) FindSingleByName(ctx context.Context, name string) (*model.ScheduledJob, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM scheduled_jobs WHERE name = $1 AND type = 'SINGLE'`, name)
	return scanJob(row)
}

func (s *PostgresStore) FindNormalByNameAndUniqueKey(ctx context.Context, name, uniqueKey string) (*model.ScheduledJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM scheduled_jobs WHERE name = $1 AND type = 'NORMAL' AND unique_key = $2`,
		name, uniqueKey)
	return scanJob(row)
}

// CountStaleLocks powers the read-only monitor — it never claims or mutates.
func (s *PostgresStore) CountStaleLocks(ctx context.Context, asOf time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM scheduled_jobs WHERE lock_until IS NOT NULL AND lock_until <= $1`,
		asOf,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count stale locks: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scheduled_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

func marshalData(data any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal job data: %w", err)
	}
	return b, nil
}

func marshalUnique(unique map[string]any) ([]byte, error) {
	if len(unique) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(unique)
	if err != nil {
		return nil, fmt.Errorf("marshal unique selector: %w", err)
	}
	return b, nil
}
