package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/unimind/wellness-api/internal/store"
)

const dateLayout = "2006-01-02"

var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseTimestamp accepts an ISO-8601 datetime. Zoned values keep their
// offset; zoneless date-times are read in loc and a bare date is UTC midnight.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("startsAt is required")
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cast to date failed for value %q", raw)
}

// DayWindow returns the inclusive window [00:00:00.000, 23:59:59.999] of the
// calendar date day (YYYY-MM-DD) in loc.
func DayWindow(day string, loc *time.Location) (store.TimeRange, error) {
	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(day), loc)
	if err != nil {
		return store.TimeRange{}, fmt.Errorf("cast to date failed for value %q", day)
	}
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return store.TimeRange{From: start, To: end}, nil
}
