package remote

import (
	"context"

	"github.com/gleamverse/readsync/internal/domain"
)

// Noop is the client used when no remote is configured. Reads return
// empty results and writes succeed without doing anything, so the rest
// of the engine runs unchanged against the local cache.
type Noop struct{}

// NewNoop creates a client for local-only operation.
func NewNoop() Noop { return Noop{} }

// Enabled implements Client.
func (Noop) Enabled() bool { return false }

// FetchHistory implements Client.
func (Noop) FetchHistory(context.Context, string) ([]*domain.HistoryRecord, error) {
	return nil, nil
}

// UpsertHistory implements Client.
func (Noop) UpsertHistory(context.Context, *domain.HistoryRecord) error { return nil }

// DeleteHistory implements Client.
func (Noop) DeleteHistory(context.Context, string, string) error { return nil }

// FetchBookmarks implements Client.
func (Noop) FetchBookmarks(context.Context, string) (domain.BookmarkSet, error) {
	return domain.BookmarkSet{}, nil
}

// UpsertBookmark implements Client.
func (Noop) UpsertBookmark(context.Context, string, domain.BookmarkEntry) error { return nil }

// DeleteBookmark implements Client.
func (Noop) DeleteBookmark(context.Context, string, string) error { return nil }

// FetchGoals implements Client.
func (Noop) FetchGoals(context.Context, string) ([]*domain.ReadingGoal, error) { return nil, nil }

// UpsertGoal implements Client.
func (Noop) UpsertGoal(context.Context, *domain.ReadingGoal) error { return nil }

// DeleteGoal implements Client.
func (Noop) DeleteGoal(context.Context, string, string) error { return nil }

// EnsureBook implements Client.
func (Noop) EnsureBook(context.Context, *domain.Book) error { return nil }

// Close implements Client.
func (Noop) Close() error { return nil }
