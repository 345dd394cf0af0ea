package domain

import "time"

// ReadingGoal is a user-defined target of books to finish.
//
// CompletedBooks is derived: it is recomputed from live bookmark
// statuses whenever one of the goal's books changes status, and must
// never be treated as independently authoritative.
type ReadingGoal struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	TargetBooks    int        `json:"target_books"`
	CompletedBooks int        `json:"completed_books"`
	BookIDs        []string   `json:"book_ids"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ContainsBook reports whether the goal tracks the given book.
func (g *ReadingGoal) ContainsBook(bookID string) bool {
	for _, id := range g.BookIDs {
		if id == bookID {
			return true
		}
	}
	return false
}

// Recompute refreshes CompletedBooks from the given status map and
// reports whether the count changed. Callers persist the goal only
// when it did, to avoid redundant writes.
func (g *ReadingGoal) Recompute(statuses map[string]BookmarkStatus) bool {
	count := 0
	for _, id := range g.BookIDs {
		if statuses[id] == StatusCompleted {
			count++
		}
	}
	if count == g.CompletedBooks {
		return false
	}
	g.CompletedBooks = count
	return true
}

// ProgressPercent returns completion as a 0-100 percentage.
func (g *ReadingGoal) ProgressPercent() int {
	if g.TargetBooks <= 0 {
		return 0
	}
	pct := g.CompletedBooks * 100 / g.TargetBooks
	if pct > 100 {
		pct = 100
	}
	return pct
}
