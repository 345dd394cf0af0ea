package domain

import (
	"math"
	"slices"
	"time"
)

// GuestOwnerID is the sentinel identity used when no user is signed in.
// Guest history lives entirely in the local cache and never touches the
// remote store.
const GuestOwnerID = "guest"

// HistoryCapacity is the per-owner bound on history records. Inserting
// beyond it evicts the oldest record by LastReadAt.
const HistoryCapacity = 5

// HistoryRecord tracks the last page an owner read in a book.
// One record exists per (OwnerID, BookID) pair. The local cache and the
// remote store each hold a replica; the history tracker is the owner.
type HistoryRecord struct {
	OwnerID    string    `json:"owner_id"`
	BookID     string    `json:"book_id"`
	LastPage   int       `json:"last_page"`
	LastReadAt time.Time `json:"last_read_at"`
	TotalPages int       `json:"total_pages"`
}

// RecordID generates the composite key: "ownerID:bookID".
func RecordID(ownerID, bookID string) string {
	return ownerID + ":" + bookID
}

// Progress is a display-ready view over a history record.
type Progress struct {
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	Percentage  int        `json:"percentage"`
	LastReadAt  *time.Time `json:"last_read_at,omitempty"`
}

// Progress derives the view for this record.
// Percentage is 0 when the page count is unknown.
func (r *HistoryRecord) Progress() Progress {
	p := Progress{
		CurrentPage: r.LastPage,
		TotalPages:  r.TotalPages,
	}
	if !r.LastReadAt.IsZero() {
		t := r.LastReadAt
		p.LastReadAt = &t
	}
	if r.TotalPages > 0 {
		p.Percentage = int(math.Round(float64(r.LastPage) / float64(r.TotalPages) * 100))
	}
	return p
}

// IsFinished reports whether the record has reached the last page.
func (r *HistoryRecord) IsFinished() bool {
	return r.TotalPages > 0 && r.LastPage >= r.TotalPages
}

// SortHistory orders records by LastReadAt descending (most recent first).
func SortHistory(records []*HistoryRecord) {
	slices.SortFunc(records, func(a, b *HistoryRecord) int {
		return b.LastReadAt.Compare(a.LastReadAt)
	})
}

// CapHistory sorts records by LastReadAt descending and splits them at
// the given capacity. Eviction is oldest-timestamp, not LRU-by-access:
// reading an old book again refreshes its timestamp, merely looking at
// it does not.
func CapHistory(records []*HistoryRecord, capacity int) (kept, evicted []*HistoryRecord) {
	SortHistory(records)
	if capacity <= 0 || len(records) <= capacity {
		return records, nil
	}
	return records[:capacity], records[capacity:]
}
