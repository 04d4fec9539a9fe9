// Package gamify implements the Readly gamification engine: streaks,
// badges, levels, and the daily reading challenge. All aggregates are
// recomputed from the check-in ledger — never incremented in place —
// so a crash mid-sequence is recovered by the next recompute.
package gamify

import (
	"time"

	"github.com/readly-app/readly/internal/domain"
)

// CurrentStreak derives the consecutive-day streak from a user's
// distinct check-in days, sorted descending. A streak counts only if it
// ends today or yesterday; any gap of two or more days terminates the
// walk.
func CurrentStreak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	t := domain.DayOf(today)
	latest := domain.DayOf(days[0])

	// Missed both yesterday and today — streak is broken.
	if !latest.Equal(t) && !domain.IsYesterday(latest, t) {
		return 0
	}

	count := 1
	prev := latest
	for _, d := range days[1:] {
		d = domain.DayOf(d)
		if d.Equal(prev) {
			continue // duplicate day, count once
		}
		if domain.DaysBetween(d, prev) != 1 {
			break
		}
		count++
		prev = d
	}
	return count
}
