package utils

import "time"

// TruncateUTC truncates t to the start of its bucket of the given width,
// in UTC. Widths are expected to divide a day evenly (hour, day).
func TruncateUTC(t time.Time, width time.Duration) time.Time {
	return t.UTC().Truncate(width)
}

// StartOfHour returns the first moment of the hour in UTC
func StartOfHour(t time.Time) time.Time {
	return TruncateUTC(t, time.Hour)
}

// StartOfDay returns the first moment of the day in UTC
func StartOfDay(t time.Time) time.Time {
	return TruncateUTC(t, 24*time.Hour)
}

// HoursBetween returns the fractional number of hours between two instants
func HoursBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// FormatDateRange formats a date range for display
func FormatDateRange(start, end time.Time) string {
	return start.Format("2006-01-02") + " to " + end.Format("2006-01-02")
}
