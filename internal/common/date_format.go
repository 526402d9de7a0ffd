package common

import (
	"fmt"
	"time"
)

// Standard date format constants
const (
	// ISO8601Date is the standard date format used throughout the application
	// for cache keys, file naming, and the date pickers
	ISO8601Date = "2006-01-02"

	// RFC3339UTC is the instant format sent to the process API
	RFC3339UTC = "2006-01-02T15:04:05Z"
)

// ParseISO8601 parses a date string in ISO 8601 format (YYYY-MM-DD)
func ParseISO8601(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date string is empty")
	}
	return time.Parse(ISO8601Date, dateStr)
}

// FormatISO8601 formats a time.Time to ISO 8601 date string (YYYY-MM-DD)
func FormatISO8601(t time.Time) string {
	return t.Format(ISO8601Date)
}

// DayStartRFC3339 expands a picked date to the first instant of that day in
// UTC. The expansion happens once, at the UI boundary; everything downstream
// treats the result as an opaque literal.
func DayStartRFC3339(dateStr string) (string, error) {
	t, err := ParseISO8601(dateStr)
	if err != nil {
		return "", err
	}
	return t.Format(RFC3339UTC), nil
}

// DayEndRFC3339 expands a picked date to the last whole second of that day
// in UTC
func DayEndRFC3339(dateStr string) (string, error) {
	t, err := ParseISO8601(dateStr)
	if err != nil {
		return "", err
	}
	return t.Add(24*time.Hour - time.Second).Format(RFC3339UTC), nil
}
