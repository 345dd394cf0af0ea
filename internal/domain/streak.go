package domain

import (
	"slices"
	"time"
)

// StreakData is entirely derived from history timestamps. It is never
// persisted as a source of truth.
type StreakData struct {
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastReadDate  *time.Time `json:"last_read_date,omitempty"`
}

// ComputeStreak derives streak data from reading timestamps.
//
// Days are calendar days in the given location. The current streak is
// alive only if the most recent reading day is today or yesterday;
// otherwise it is 0, while the longest streak is still computed over
// the full history.
func ComputeStreak(readTimes []time.Time, now time.Time, loc *time.Location) StreakData {
	if loc == nil {
		loc = time.Local
	}

	// Collapse timestamps to distinct calendar days.
	seen := make(map[time.Time]bool)
	var days []time.Time
	for _, ts := range readTimes {
		if ts.IsZero() {
			continue
		}
		day := startOfDay(ts.In(loc))
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}

	if len(days) == 0 {
		return StreakData{}
	}

	// Newest first.
	slices.SortFunc(days, func(a, b time.Time) int {
		return b.Compare(a)
	})

	lastRead := days[0]
	data := StreakData{LastReadDate: &lastRead}

	// Longest run of consecutive days, independent of where the current
	// streak starts.
	longest, run := 1, 1
	for i := 0; i < len(days)-1; i++ {
		if isConsecutiveDay(days[i], days[i+1]) {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	data.LongestStreak = longest

	// Current streak requires the newest reading day to be today or
	// yesterday; anything older means the streak is broken.
	today := startOfDay(now.In(loc))
	yesterday := today.AddDate(0, 0, -1)
	if !lastRead.Equal(today) && !lastRead.Equal(yesterday) {
		return data
	}

	current := 1
	for i := 0; i < len(days)-1; i++ {
		if isConsecutiveDay(days[i], days[i+1]) {
			current++
		} else {
			break
		}
	}
	data.CurrentStreak = current
	return data
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// isConsecutiveDay reports whether a and b are exactly one calendar day
// apart, in either order.
func isConsecutiveDay(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	// AddDate across DST shifts keeps this within a few hours of 24h.
	return diff > 0 && diff <= 25*time.Hour && !a.Equal(b)
}
