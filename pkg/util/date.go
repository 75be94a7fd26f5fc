package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// AddTradingDays moves start forward by n days that are not in weekend,
// keeping the time of day. Starting on a weekend day does not count that day.
func AddTradingDays(start time.Time, n int, weekend []time.Weekday) time.Time {
	t := start
	for added := 0; added < n; {
		t = t.AddDate(0, 0, 1)
		if !IsWeekend(t, weekend) {
			added++
		}
	}
	return t
}

func IsWeekend(t time.Time, weekend []time.Weekday) bool {
	for _, d := range weekend {
		if t.Weekday() == d {
			return true
		}
	}
	return false
}

// ParseWeekdays maps names like "Friday" or "fri" to time.Weekday, skipping unknown ones.
func ParseWeekdays(names []string) []time.Weekday {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := d.String()
			if EqualFoldPrefix(full, n) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
