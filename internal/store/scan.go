package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/agendahq/agenda-go/internal/model"
)

const selectColumns = `
	id, name, type, unique_key, unique_selector, next_run_at,
	repeat_interval, repeat_timezone, priority, data,
	locked_at, lock_until, locked_by,
	last_run_at, last_finished_at, fail_count, failed_at,
	created_at, updated_at`

// rowScanner is implemented by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.ScheduledJob, error) {
	var (
		j              model.ScheduledJob
		jobType        string
		uniqueSelector []byte
		data           []byte
		lockedBy       string
	)

	err := row.Scan(
		&j.ID, &j.Name, &jobType, &j.UniqueKey, &uniqueSelector, &j.NextRunAt,
		&j.RepeatInterval, &j.RepeatTimezone, &j.Priority, &data,
		&j.LockedAt, &j.LockUntil, &lockedBy,
		&j.LastRunAt, &j.LastFinishedAt, &j.FailCount, &j.FailedAt,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan scheduled job: %w", err)
	}

	j.Type = model.Type(jobType)
	j.LockedBy = lockedBy

	if len(uniqueSelector) > 0 {
		if err := json.Unmarshal(uniqueSelector, &j.Unique); err != nil {
			return nil, fmt.Errorf("unmarshal unique selector: %w", err)
		}
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &j.Data); err != nil {
			return nil, fmt.Errorf("unmarshal job data: %w", err)
		}
	}
	return &j, nil
}

// ToSpec converts a persisted document back into the shape its handler
// declared, via decode — the pluggable "map → T" capability spec §4.2 and
// §9 describe. When decode is nil, the raw generic map is returned.
func ToSpec(job *model.ScheduledJob, decode func(map[string]any) (any, error)) (any, error) {
	if decode == nil {
		return job.Data, nil
	}
	return decode(job.Data)
}

// buildCancelWhere renders the WHERE clause and positional args for a
// cancel query. At least one of Name, UniqueKey, or Unique must be set.
func buildCancelWhere(query model.CancelQuery) (string, []any, error) {
	if query.Empty() {
		return "", nil, fmt.Errorf("%w: cancel query must set name, uniqueKey, or unique", model.ErrInvalidArgument)
	}

	var clauses []string
	var args []any

	if query.Name != "" {
		args = append(args, query.Name)
		clauses = append(clauses, fmt.Sprintf("name = $%d", len(args)))
	}
	if query.UniqueKey != "" {
		args = append(args, query.UniqueKey)
		clauses = append(clauses, fmt.Sprintf("unique_key = $%d", len(args)))
	}
	if len(query.Unique) > 0 {
		selectorJSON, err := json.Marshal(query.Unique)
		if err != nil {
			return "", nil, fmt.Errorf("marshal unique selector: %w", err)
		}
		args = append(args, selectorJSON)
		clauses = append(clauses, fmt.Sprintf("unique_selector @> $%d::jsonb", len(args)))
	}

	where := clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args, nil
}
