package domain

import "time"

// BookmarkStatus is the workflow status of a bookmarked book.
type BookmarkStatus string

// Lifecycle statuses. A book moves freely between any two of them, and
// any status can be removed back to "not bookmarked".
const (
	StatusPlanning  BookmarkStatus = "planning"
	StatusReading   BookmarkStatus = "reading"
	StatusOnHold    BookmarkStatus = "on_hold"
	StatusCompleted BookmarkStatus = "completed"
)

// Valid reports whether s is a known status.
func (s BookmarkStatus) Valid() bool {
	switch s {
	case StatusPlanning, StatusReading, StatusOnHold, StatusCompleted:
		return true
	}
	return false
}

// BookmarkEntry marks a book as part of the owner's library.
// At most one entry exists per BookID: set semantics on the book,
// mapping semantics on the status.
type BookmarkEntry struct {
	BookID  string         `json:"book_id"`
	Status  BookmarkStatus `json:"status"`
	AddedAt time.Time      `json:"added_at"`
}

// BookmarkSet is the in-memory shape of an owner's library.
// Values are stored by value so that snapshots are cheap deep copies.
type BookmarkSet map[string]BookmarkEntry

// Clone returns an independent copy of the set. Mutating operations
// snapshot the set before applying optimistic changes so a remote
// failure can restore the exact pre-mutation state.
func (s BookmarkSet) Clone() BookmarkSet {
	out := make(BookmarkSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Statuses returns the bookID to status mapping used by goal
// reconciliation.
func (s BookmarkSet) Statuses() map[string]BookmarkStatus {
	out := make(map[string]BookmarkStatus, len(s))
	for k, v := range s {
		out[k] = v.Status
	}
	return out
}
