package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	humanIntervalShape = regexp.MustCompile(`^(\d+\s*[A-Za-z]+)(\s+\d+\s*[A-Za-z]+)*$`)
	humanIntervalPart  = regexp.MustCompile(`(\d+)\s*([A-Za-z]+)`)
)

var unitDurations = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
}

// unitAliases maps every recognized spelling (compact letter and plural
// word forms) to its canonical unit name.
var unitAliases = map[string]string{
	"s": "second", "sec": "second", "secs": "second", "second": "second", "seconds": "second",
	"m": "minute", "min": "minute", "mins": "minute", "minute": "minute", "minutes": "minute",
	"h": "hour", "hr": "hour", "hrs": "hour", "hour": "hour", "hours": "hour",
	"d": "day", "day": "day", "days": "day",
	"w": "week", "week": "week", "weeks": "week",
	"month": "month", "months": "month",
}

// parseHumanInterval parses a sequence of "N unit" pairs (space-separated,
// or a single compact "Nu" token) and sums the durations. Duplicate units,
// unrecognized units, or anything that doesn't fully match the shape is an
// error.
func parseHumanInterval(spec string) (time.Duration, error) {
	if !humanIntervalShape.MatchString(spec) {
		return 0, fmt.Errorf("not a human interval: %q", spec)
	}

	matches := humanIntervalPart.FindAllStringSubmatch(spec, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("not a human interval: %q", spec)
	}

	seen := make(map[string]bool, len(matches))
	var total time.Duration
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid count in %q", m[0])
		}

		unit, ok := unitAliases[strings.ToLower(m[2])]
		if !ok {
			return 0, fmt.Errorf("unrecognized unit %q", m[2])
		}
		if seen[unit] {
			return 0, fmt.Errorf("duplicate unit %q", unit)
		}
		seen[unit] = true

		total += unitDurations[unit] * time.Duration(n)
	}
	return total, nil
}
