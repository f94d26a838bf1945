// Package schedule parses the schedule expressions a JobSpec carries in its
// RepeatInterval field and computes the next instant a job is due.
//
// Four forms are recognized, tried in this precedence: numeric seconds,
// daily fixed time ("AT HH:mm[:ss]"), cron (5- or 6-field), and human
// interval ("3 hours 15 minutes" or compact "5m"). The result is a tagged
// Interval value rather than stringly-typed branches at every call site —
// see Parse and Interval.NextAfter.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agendahq/agenda-go/internal/model"
)

// Kind tags which of the four schedule forms an Interval represents.
type Kind int

const (
	KindNumeric Kind = iota
	KindDailyAt
	KindCron
	KindHumanInterval
)

// Interval is the parsed, ready-to-evaluate form of a schedule expression.
type Interval struct {
	Kind Kind

	// Numeric, HumanInterval
	Duration time.Duration

	// DailyAt
	hour, minute, second int

	// Cron
	cronExpr     string
	cronSchedule cron.Schedule
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Parse detects the form of spec and parses it accordingly. An empty or
// blank spec, or one that matches no recognized form, is model.ErrInvalidSchedule.
func Parse(spec string) (*Interval, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return nil, model.ErrInvalidSchedule
	}

	if isAllDigits(trimmed) {
		n, err := strconv.Atoi(trimmed)
		if err != nil || n <= 0 {
			return nil, model.ErrInvalidSchedule
		}
		return &Interval{Kind: KindNumeric, Duration: time.Duration(n) * time.Second}, nil
	}

	if rest, ok := strings.CutPrefix(trimmed, "AT "); ok {
		h, m, s, err := parseTimeOfDay(strings.TrimSpace(rest))
		if err != nil {
			return nil, model.ErrInvalidSchedule
		}
		return &Interval{Kind: KindDailyAt, hour: h, minute: m, second: s}, nil
	}

	if expr, sched, err := tryParseCron(trimmed); err == nil {
		return &Interval{Kind: KindCron, cronExpr: expr, cronSchedule: sched}, nil
	}

	dur, err := parseHumanInterval(trimmed)
	if err != nil {
		return nil, model.ErrInvalidSchedule
	}
	return &Interval{Kind: KindHumanInterval, Duration: dur}, nil
}

// NextAfter returns the next instant, strictly after base, that the
// interval fires — evaluated in loc for the forms that care about wall
// clock (DailyAt, Cron).
func (iv *Interval) NextAfter(base time.Time, loc *time.Location) (time.Time, error) {
	switch iv.Kind {
	case KindNumeric, KindHumanInterval:
		return base.Add(iv.Duration), nil
	case KindDailyAt:
		return iv.nextDailyAt(base, loc), nil
	case KindCron:
		return iv.cronSchedule.Next(base.In(loc)), nil
	default:
		return time.Time{}, model.ErrInvalidSchedule
	}
}

func (iv *Interval) nextDailyAt(base time.Time, loc *time.Location) time.Time {
	baseLoc := base.In(loc)
	candidate := time.Date(baseLoc.Year(), baseLoc.Month(), baseLoc.Day(), iv.hour, iv.minute, iv.second, 0, loc)
	if !candidate.After(baseLoc) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
