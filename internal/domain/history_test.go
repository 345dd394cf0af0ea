package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyAt(bookID string, readAt time.Time) *HistoryRecord {
	return &HistoryRecord{
		OwnerID:    "user-1",
		BookID:     bookID,
		LastPage:   10,
		LastReadAt: readAt,
		TotalPages: 100,
	}
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "user-1:book-a", RecordID("user-1", "book-a"))
}

func TestProgress_Percentage(t *testing.T) {
	tests := []struct {
		name       string
		lastPage   int
		totalPages int
		want       int
	}{
		{"halfway", 50, 100, 50},
		{"rounds up", 1, 3, 33},
		{"rounds half up", 1, 2, 50},
		{"unknown total", 42, 0, 0},
		{"finished", 100, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &HistoryRecord{LastPage: tt.lastPage, TotalPages: tt.totalPages}
			assert.Equal(t, tt.want, r.Progress().Percentage)
		})
	}
}

func TestProgress_ZeroTimeOmitted(t *testing.T) {
	r := &HistoryRecord{LastPage: 5, TotalPages: 10}
	assert.Nil(t, r.Progress().LastReadAt)

	r.LastReadAt = time.Now()
	assert.NotNil(t, r.Progress().LastReadAt)
}

func TestIsFinished(t *testing.T) {
	assert.True(t, (&HistoryRecord{LastPage: 100, TotalPages: 100}).IsFinished())
	assert.False(t, (&HistoryRecord{LastPage: 99, TotalPages: 100}).IsFinished())
	// Unknown page count never reports finished.
	assert.False(t, (&HistoryRecord{LastPage: 500, TotalPages: 0}).IsFinished())
}

func TestCapHistory_EvictsOldest(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var records []*HistoryRecord
	for i := 0; i < 7; i++ {
		records = append(records, historyAt(string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour)))
	}

	kept, evicted := CapHistory(records, HistoryCapacity)

	require.Len(t, kept, 5)
	require.Len(t, evicted, 2)

	// Kept are the five newest, most recent first.
	assert.Equal(t, "g", kept[0].BookID)
	assert.Equal(t, "c", kept[4].BookID)

	// Evicted are the oldest by timestamp.
	assert.Equal(t, "b", evicted[0].BookID)
	assert.Equal(t, "a", evicted[1].BookID)
}

func TestCapHistory_UnderCapacity(t *testing.T) {
	records := []*HistoryRecord{historyAt("a", time.Now())}
	kept, evicted := CapHistory(records, HistoryCapacity)
	assert.Len(t, kept, 1)
	assert.Empty(t, evicted)
}

func TestSortHistory(t *testing.T) {
	now := time.Now()
	records := []*HistoryRecord{
		historyAt("old", now.Add(-2*time.Hour)),
		historyAt("new", now),
		historyAt("mid", now.Add(-time.Hour)),
	}

	SortHistory(records)

	assert.Equal(t, "new", records[0].BookID)
	assert.Equal(t, "mid", records[1].BookID)
	assert.Equal(t, "old", records[2].BookID)
}
