// Package model defines the persistent and in-flight shapes of a scheduled
// job: the immutable spec a caller builds, and the document the store
// persists and the engine mutates as the job runs.
package model

import (
	"errors"
	"time"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidSchedule  = errors.New("invalid schedule")
	ErrDuplicateHandler = errors.New("duplicate handler name")
	ErrUnknownHandler   = errors.New("unknown handler")
	ErrJobNotFound      = errors.New("job not found")
	ErrLeaseLost        = errors.New("lease lost: job claimed by another worker")
)

// Type distinguishes a name-unique singleton job from a job that may exist
// in many copies.
type Type string

const (
	// Single jobs are unique by name; re-saving one updates it in place.
	Single Type = "SINGLE"
	// Normal jobs may exist in multiple copies, optionally deduplicated by
	// (name, uniqueKey).
	Normal Type = "NORMAL"
)

// Priority is a signed ordering key; higher runs first among jobs due at
// the same instant. The named levels mirror the ones callers reach for most
// often; any int is otherwise valid.
type Priority int

const (
	PriorityHighest Priority = 20
	PriorityHigh    Priority = 10
	PriorityNormal  Priority = 0
	PriorityLow     Priority = -10
	PriorityLowest  Priority = -20
)

// JobSpec is the immutable artifact produced by the builder and handed to
// the store's Save operation. A zero JobSpec is never valid — Name must be
// set by the builder before Build returns.
type JobSpec struct {
	Name    string
	Type    Type
	Unique  map[string]any
	UniqueKey string

	NextRunAt      *time.Time
	RepeatInterval string
	RepeatTimezone string
	Priority       Priority

	Data any
}

// SaveOutcome reports whether Save inserted a new document or updated an
// existing one.
type SaveOutcome int

const (
	Created SaveOutcome = iota
	Updated
)

// ScheduledJob is the persisted document: a JobSpec plus store-assigned
// identity, lease state, and run bookkeeping.
type ScheduledJob struct {
	ID string

	Name      string
	Type      Type
	UniqueKey string
	Unique    map[string]any

	NextRunAt      *time.Time
	RepeatInterval string
	RepeatTimezone string
	Priority       Priority

	Data map[string]any

	LockedAt  *time.Time
	LockUntil *time.Time
	LockedBy  string

	LastRunAt      *time.Time
	LastFinishedAt *time.Time

	FailCount int
	FailedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Due reports whether the job is due at t: it has a next-run instant that
// has arrived.
func (j *ScheduledJob) Due(t time.Time) bool {
	return j.NextRunAt != nil && !j.NextRunAt.After(t)
}

// Claimable reports whether the job is due at t and not under an active
// lease.
func (j *ScheduledJob) Claimable(t time.Time) bool {
	return j.Due(t) && (j.LockUntil == nil || !j.LockUntil.After(t))
}

// CancelMode selects disable-in-place versus hard delete for Cancel.
type CancelMode int

const (
	Disable CancelMode = iota
	Delete
)

// CancelQuery selects the documents a cancel operation targets. At least
// one of Name, UniqueKey, or Unique must be set.
type CancelQuery struct {
	Name      string
	UniqueKey string
	Unique    map[string]any
}

// Empty reports whether the query carries no selector at all, which the
// store must reject with ErrInvalidArgument.
func (q CancelQuery) Empty() bool {
	return q.Name == "" && q.UniqueKey == "" && len(q.Unique) == 0
}

// CancelOptions configures a cancel call: which mode to apply and how many
// matching documents to touch at most.
type CancelOptions struct {
	Mode  CancelMode
	Limit int
}

// CancelResult reports how many documents a cancel operation touched.
type CancelResult struct {
	Matched  int
	Modified int
	Deleted  int
}

// EveryOptions configures the every() convenience operation.
type EveryOptions struct {
	// SkipImmediate, when false (the default), seeds NextRunAt at now so
	// the job runs on the very first poll; when true, the first run is
	// deferred by one full interval.
	SkipImmediate bool
	Timezone      string
	Priority      Priority
}
