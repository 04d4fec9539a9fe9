package domain

import "time"

// Calendar helpers. The whole engine reasons about timezone-naive
// calendar days: every timestamp is truncated to UTC midnight before
// comparison, and days are stored as "YYYY-MM-DD" keys.

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats t as a "YYYY-MM-DD" storage key.
func DayKey(t time.Time) string {
	return DayOf(t).Format(time.DateOnly)
}

// ParseDay parses a "YYYY-MM-DD" key back into a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// DaysBetween returns b-a in whole calendar days (negative if b < a).
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)) / (24 * time.Hour))
}

// IsYesterday reports whether day is exactly one day before today.
func IsYesterday(day, today time.Time) bool {
	return DaysBetween(day, today) == 1
}

// StartOfWeek returns the Monday of t's week at UTC midnight.
func StartOfWeek(t time.Time) time.Time {
	d := DayOf(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

// StartOfMonth returns the first of t's month at UTC midnight.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
