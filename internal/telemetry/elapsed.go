package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseElapsed converts a time cell to seconds. Accepted forms:
//
//	89.708                     plain seconds
//	1m29.708s                  Go duration
//	01:29.708, 00:01:29.708    [HH:]MM:SS clock
//	0 days 00:01:29.708000     pandas Timedelta
func ParseElapsed(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time value")
	}

	if strings.Contains(s, "day") {
		return parseTimedelta(s)
	}
	if strings.Contains(s, ":") {
		return parseClock(s)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unrecognised time value %q", s)
	}
	return d.Seconds(), nil
}

// parseTimedelta handles "N days HH:MM:SS[.ffffff]" including the negative
// pandas form "-1 days +23:59:59.5".
func parseTimedelta(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 || !strings.HasPrefix(fields[1], "day") {
		return 0, fmt.Errorf("unrecognised timedelta %q", s)
	}
	days, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("bad day count in %q: %w", s, err)
	}
	clock, err := parseClock(strings.TrimPrefix(fields[2], "+"))
	if err != nil {
		return 0, err
	}
	return float64(days)*86400 + clock, nil
}

func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("unrecognised clock time %q", s)
	}
	var total float64
	for i, p := range parts {
		last := i == len(parts)-1
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || (!last && v != float64(int(v))) {
			return 0, fmt.Errorf("unrecognised clock time %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}
