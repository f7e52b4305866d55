package aggregate

import (
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
// 1e11 seconds is far beyond year 5000; 1e11 ms is March 1973.
const epochMillisThreshold = 1e11

// ParseTimestamp parses an ISO-8601 date or date-time, or an epoch number in
// seconds or milliseconds. Zone-less values are read as UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	if n < epochMillisThreshold {
		return time.Unix(0, int64(n*float64(time.Second))).UTC(), true
	}
	return time.UnixMilli(int64(n)).UTC(), true
}

// IsWithinDays reports whether raw parses and falls strictly after
// now minus days. Absent or unparseable timestamps never pass.
func IsWithinDays(raw string, days int, now time.Time) bool {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return false
	}
	return t.After(now.AddDate(0, 0, -days))
}
