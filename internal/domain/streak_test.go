package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeStreak_Empty(t *testing.T) {
	data := ComputeStreak(nil, time.Now(), time.UTC)
	assert.Equal(t, 0, data.CurrentStreak)
	assert.Equal(t, 0, data.LongestStreak)
	assert.Nil(t, data.LastReadDate)
}

func TestComputeStreak_Boundaries(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time {
		return now.AddDate(0, 0, offset)
	}

	tests := []struct {
		name        string
		reads       []time.Time
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "today yesterday and day before",
			reads:       []time.Time{day(0), day(-1), day(-2)},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "gap breaks current streak",
			reads:       []time.Time{day(0), day(-3)},
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "no read today or yesterday",
			reads:       []time.Time{day(-2), day(-3), day(-4)},
			wantCurrent: 0,
			wantLongest: 3,
		},
		{
			name:        "yesterday keeps the streak alive",
			reads:       []time.Time{day(-1), day(-2)},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name:        "longest run is in the past",
			reads:       []time.Time{day(0), day(-5), day(-6), day(-7), day(-8)},
			wantCurrent: 1,
			wantLongest: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := ComputeStreak(tt.reads, now, time.UTC)
			assert.Equal(t, tt.wantCurrent, data.CurrentStreak, "current streak")
			assert.Equal(t, tt.wantLongest, data.LongestStreak, "longest streak")
		})
	}
}

func TestComputeStreak_SameDayCollapses(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

	// Three reads on the same day count as one reading day.
	reads := []time.Time{
		now.Add(-1 * time.Hour),
		now.Add(-5 * time.Hour),
		now.Add(-10 * time.Hour),
	}

	data := ComputeStreak(reads, now, time.UTC)
	assert.Equal(t, 1, data.CurrentStreak)
	assert.Equal(t, 1, data.LongestStreak)
}

func TestComputeStreak_LastReadDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	reads := []time.Time{now.AddDate(0, 0, -4)}

	data := ComputeStreak(reads, now, time.UTC)
	assert.Equal(t, 0, data.CurrentStreak)
	assert.NotNil(t, data.LastReadDate)
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), *data.LastReadDate)
}
