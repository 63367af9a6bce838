package common

import "time"

// TruncateToDateUTC truncates the given time to midnight (00:00:00) in UTC.
// Streak day arithmetic is done on UTC dates so that two instants on the
// same calendar day compare equal regardless of their wall-clock time.
//
// Example:
//   - Input: 2025-10-17 14:23:45 UTC
//   - Output: 2025-10-17 00:00:00 UTC
func TruncateToDateUTC(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	return TruncateToDateUTC(a).Equal(TruncateToDateUTC(b))
}

// DaysBetweenUTC returns the signed whole-day difference between the UTC
// dates of from and to (positive when to is on a later day).
//
// Example:
//   - from: 2025-10-16 23:59:00 UTC, to: 2025-10-17 00:01:00 UTC → 1
func DaysBetweenUTC(from, to time.Time) int {
	diff := TruncateToDateUTC(to).Sub(TruncateToDateUTC(from))
	return int(diff / (24 * time.Hour))
}
