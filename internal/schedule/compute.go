package schedule

import (
	"strings"
	"time"
)

// ResolveZone parses zoneID as an IANA timezone name, falling back to the
// system default when zoneID is blank or unparseable.
func ResolveZone(zoneID string) *time.Location {
	if zoneID == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return time.Local
	}
	return loc
}

// ComputeNextRunAt is the public entry point the worker uses to reschedule
// a job after a run. It returns nil if spec is absent or blank. baseInstant is
// max(previousNextRunAt, finishedAt), falling back to now when both are
// nil.
func ComputeNextRunAt(spec, zoneID string, previousNextRunAt, finishedAt *time.Time) (*time.Time, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return nil, nil
	}

	iv, err := Parse(spec)
	if err != nil {
		return nil, err
	}

	base := maxTime(previousNextRunAt, finishedAt)
	loc := ResolveZone(zoneID)

	next, err := iv.NextAfter(base, loc)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// ParseDuration is a convenience used by tests and callers that just want
// "how long until the next fire from base", rather than the absolute
// instant.
func ParseDuration(spec, zoneID string, base time.Time) (time.Duration, error) {
	iv, err := Parse(spec)
	if err != nil {
		return 0, err
	}
	loc := ResolveZone(zoneID)
	next, err := iv.NextAfter(base, loc)
	if err != nil {
		return 0, err
	}
	return next.Sub(base), nil
}

func maxTime(a, b *time.Time) time.Time {
	switch {
	case a == nil && b == nil:
		return time.Now()
	case a == nil:
		return *b
	case b == nil:
		return *a
	case a.After(*b):
		return *a
	default:
		return *b
	}
}
