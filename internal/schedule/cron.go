package schedule

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// tryParseCron normalizes a 5- or 6-field cron expression (prepending "0"
// for seconds when given the classical 5-field form, and substituting "?"
// for day-of-week when both day-of-month and day-of-week are "*") and
// parses it with robfig/cron. Any other field count, or a field count that
// fails to parse, is reported as an error so the caller falls back to the
// human-interval form.
func tryParseCron(spec string) (string, cron.Schedule, error) {
	fields := strings.Fields(spec)
	switch len(fields) {
	case 5:
		fields = append([]string{"0"}, fields...)
	case 6:
		// already has a seconds field
	default:
		return "", nil, fmt.Errorf("not a cron expression: %q", spec)
	}

	// fields layout is now: second minute hour dom month dow
	if fields[3] == "*" && fields[5] == "*" {
		fields[5] = "?"
	}

	normalized := strings.Join(fields, " ")
	sched, err := cronParser.Parse(normalized)
	if err != nil {
		return "", nil, fmt.Errorf("parse cron %q: %w", normalized, err)
	}
	return normalized, sched, nil
}
