package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// parseTimeOfDay accepts "HH:mm" or "HH:mm:ss" and returns the components.
func parseTimeOfDay(s string) (hour, minute, second int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("time of day %q: want HH:mm or HH:mm:ss", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 || len(parts[0]) != 2 {
		return 0, 0, 0, fmt.Errorf("time of day %q: invalid hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, 0, 0, fmt.Errorf("time of day %q: invalid minute", s)
	}
	if len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 || len(parts[2]) != 2 {
			return 0, 0, 0, fmt.Errorf("time of day %q: invalid second", s)
		}
	}
	return hour, minute, second, nil
}

// ValidTimeOfDay reports whether s is an acceptable "HH:mm[:ss]" literal —
// exported so the job builder can validate repeatAt() input eagerly.
func ValidTimeOfDay(s string) bool {
	_, _, _, err := parseTimeOfDay(strings.TrimSpace(s))
	return err == nil
}
