// Package builder provides the fluent assembly of a model.JobSpec, mirroring
// the chained configuration calls a caller makes before persisting a job.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/agendahq/agenda-go/internal/model"
	"github.com/agendahq/agenda-go/internal/schedule"
)

// Saver is the minimal persistence capability the builder needs from the
// job store — just enough to implement Save() without importing the whole
// store package surface.
type Saver interface {
	Save(ctx context.Context, spec *model.JobSpec) (model.SaveOutcome, error)
}

// Builder fluently assembles an immutable model.JobSpec.
type Builder struct {
	store Saver
	spec  model.JobSpec

	scheduleSet bool // nextRunAt was set explicitly via Schedule(); later calls must not override it
	err         error
}

// New starts building a spec for the handler named name, optionally
// carrying data as its payload.
func New(store Saver, name string, data any) *Builder {
	b := &Builder{store: store}
	if name == "" {
		b.err = fmt.Errorf("%w: job name must not be empty", model.ErrInvalidArgument)
		return b
	}
	b.spec = model.JobSpec{
		Name: name,
		Type: model.Normal,
		Data: data,
	}
	return b
}

// Schedule sets an absolute run time. Idempotent: once set, Schedule wins
// over any later RepeatAt/RepeatEvery seeding of NextRunAt.
func (b *Builder) Schedule(at time.Time) *Builder {
	if b.err != nil {
		return b
	}
	b.spec.NextRunAt = &at
	b.scheduleSet = true
	return b
}

// RepeatAt records a daily fixed-time schedule ("AT HH:mm[:ss]") and, if
// NextRunAt hasn't already been pinned by Schedule(), seeds it with the
// next occurrence in the job's effective timezone.
func (b *Builder) RepeatAt(timeOfDay string) *Builder {
	if b.err != nil {
		return b
	}
	if !schedule.ValidTimeOfDay(timeOfDay) {
		b.err = fmt.Errorf("%w: invalid time of day %q", model.ErrInvalidArgument, timeOfDay)
		return b
	}

	b.spec.RepeatInterval = "AT " + timeOfDay
	if !b.scheduleSet {
		b.seedNextRunAt()
	}
	return b
}

// RepeatEvery records a string schedule spec (any of the four forms the
// schedule package parses) and, unless NextRunAt is already pinned, seeds
// it per opts.SkipImmediate.
func (b *Builder) RepeatEvery(spec string, opts model.EveryOptions) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := schedule.Parse(spec); err != nil {
		b.err = fmt.Errorf("%w: %v", model.ErrInvalidSchedule, err)
		return b
	}

	b.spec.RepeatInterval = spec
	b.applyEveryOptions(opts)
	return b
}

// RepeatEverySeconds is the numeric-interval overload: n must be a
// positive integer number of seconds. It is stored as the string form of n
// so the interval parser's numeric branch re-derives it at reschedule
// time.
func (b *Builder) RepeatEverySeconds(n int, opts model.EveryOptions) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("%w: repeat interval must be a positive integer number of seconds", model.ErrInvalidArgument)
		return b
	}
	return b.RepeatEvery(fmt.Sprintf("%d", n), opts)
}

func (b *Builder) applyEveryOptions(opts model.EveryOptions) {
	if opts.Timezone != "" {
		b.spec.RepeatTimezone = opts.Timezone
	}
	if opts.Priority != 0 {
		b.spec.Priority = opts.Priority
	}
	if b.scheduleSet {
		return
	}
	if opts.SkipImmediate {
		b.seedNextRunAt()
	} else {
		now := time.Now()
		b.spec.NextRunAt = &now
	}
}

// seedNextRunAt computes NextRunAt as the next occurrence of the current
// RepeatInterval strictly after now. Used by RepeatAt (always) and by
// RepeatEvery when the caller opted to skip the immediate first run.
func (b *Builder) seedNextRunAt() {
	iv, err := schedule.Parse(b.spec.RepeatInterval)
	if err != nil {
		b.err = fmt.Errorf("%w: %v", model.ErrInvalidSchedule, err)
		return
	}
	loc := schedule.ResolveZone(b.spec.RepeatTimezone)
	next, err := iv.NextAfter(time.Now(), loc)
	if err != nil {
		b.err = fmt.Errorf("%w: %v", model.ErrInvalidSchedule, err)
		return
	}
	b.spec.NextRunAt = &next
}

// Timezone validates and stores an IANA zone id on the spec.
func (b *Builder) Timezone(zoneID string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := time.LoadLocation(zoneID); err != nil {
		b.err = fmt.Errorf("%w: invalid timezone %q", model.ErrInvalidArgument, zoneID)
		return b
	}
	b.spec.RepeatTimezone = zoneID
	return b
}

// Priority sets the job's priority.
func (b *Builder) Priority(p model.Priority) *Builder {
	if b.err != nil {
		return b
	}
	b.spec.Priority = p
	return b
}

// Single marks the spec as type SINGLE: name-unique, clearing any
// UniqueKey/Unique selector set previously.
func (b *Builder) Single() *Builder {
	if b.err != nil {
		return b
	}
	b.spec.Type = model.Single
	b.spec.UniqueKey = ""
	b.spec.Unique = nil
	return b
}

// UniqueKey marks the spec as type NORMAL with the given dedup key.
func (b *Builder) UniqueKey(key string) *Builder {
	if b.err != nil {
		return b
	}
	b.spec.Type = model.Normal
	b.spec.UniqueKey = key
	return b
}

// Unique attaches an ordered mapping used by the store for index-based
// selection, independent of UniqueKey.
func (b *Builder) Unique(selector map[string]any) *Builder {
	if b.err != nil {
		return b
	}
	b.spec.Unique = selector
	return b
}

// Build validates and returns the immutable spec.
func (b *Builder) Build() (*model.JobSpec, error) {
	if b.err != nil {
		return nil, b.err
	}
	spec := b.spec
	return &spec, nil
}

// Save builds the spec and persists it via the store.
func (b *Builder) Save(ctx context.Context) (model.SaveOutcome, error) {
	spec, err := b.Build()
	if err != nil {
		return 0, err
	}
	return b.store.Save(ctx, spec)
}
