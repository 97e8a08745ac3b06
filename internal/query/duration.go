// Package query implements label-based selection over the embedded store,
// plus time-bucketed aggregation with percentiles.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var durationPattern = regexp.MustCompile(`^([0-9]+)(s|sec|secs|second|seconds|m|min|mins|minute|minutes|h|hour|hours|d|day|days)$`)

// ParseDuration accepts the relative-duration grammar described in spec.md
// §4.5: a non-negative integer followed by a unit, with generous synonyms for
// seconds/minutes/hours/days. It returns the duration in seconds.
func ParseDuration(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	var unitSeconds int64

	switch m[2] {
	case "s", "sec", "secs", "second", "seconds":
		unitSeconds = 1
	case "m", "min", "mins", "minute", "minutes":
		unitSeconds = 60
	case "h", "hour", "hours":
		unitSeconds = 3600
	case "d", "day", "days":
		unitSeconds = 86400
	default:
		return 0, fmt.Errorf("invalid duration unit in %q", s)
	}

	return n * unitSeconds, nil
}

// ResolveFrom parses a "from" query parameter per spec.md §4.5: either an
// absolute integer timestamp (milliseconds) or a relative-duration string,
// in which case it resolves to now minus that many seconds (in milliseconds).
func ResolveFrom(raw string, now time.Time) (int64, error) {
	if abs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return abs, nil
	}

	seconds, err := ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid from value %q: %w", raw, err)
	}

	return now.Add(-time.Duration(seconds) * time.Second).UnixMilli(), nil
}
