// Package remote talks to the hosted reading-state store.
//
// The engine treats the remote as the source of truth for history and
// bookmarks when one is configured. Every method maps a single logical
// operation onto the remote's REST surface; callers own retry and
// rollback policy.
package remote

import (
	"context"

	"github.com/gleamverse/readsync/internal/domain"
	apperrors "github.com/gleamverse/readsync/internal/errors"
)

// Sentinel errors returned by clients.
var (
	// ErrUnavailable covers network failures and remote 5xx responses.
	ErrUnavailable = apperrors.ErrUnavailable.WithMessage("remote store unreachable")

	// ErrDuplicate maps the remote's unique-constraint violation.
	// Callers generally treat it as a benign no-op.
	ErrDuplicate = apperrors.ErrDuplicate.WithMessage("row already exists on remote")

	// ErrMissingReference maps the remote's foreign-key violation: the
	// row being written points at a book the remote has not seen yet.
	ErrMissingReference = apperrors.ErrConflict.WithMessage("row references a book missing on remote")
)

// Client is the remote store interface.
type Client interface {
	// Enabled reports whether a remote is actually configured. When
	// false the engine runs from the local cache only and no method
	// performs network activity.
	Enabled() bool

	// FetchHistory returns the owner's reading history, most recently
	// read first.
	FetchHistory(ctx context.Context, ownerID string) ([]*domain.HistoryRecord, error)
	// UpsertHistory inserts or updates the (owner, book) history row.
	UpsertHistory(ctx context.Context, record *domain.HistoryRecord) error
	// DeleteHistory removes the (owner, book) history row. Deleting an
	// absent row is not an error.
	DeleteHistory(ctx context.Context, ownerID, bookID string) error

	// FetchBookmarks returns the owner's bookmark set.
	FetchBookmarks(ctx context.Context, ownerID string) (domain.BookmarkSet, error)
	// UpsertBookmark inserts or updates a bookmark entry.
	UpsertBookmark(ctx context.Context, ownerID string, entry domain.BookmarkEntry) error
	// DeleteBookmark removes a bookmark entry.
	DeleteBookmark(ctx context.Context, ownerID, bookID string) error

	// FetchGoals returns the owner's reading goals.
	FetchGoals(ctx context.Context, ownerID string) ([]*domain.ReadingGoal, error)
	// UpsertGoal inserts or updates a goal.
	UpsertGoal(ctx context.Context, goal *domain.ReadingGoal) error
	// DeleteGoal removes a goal by ID.
	DeleteGoal(ctx context.Context, ownerID, goalID string) error

	// EnsureBook inserts the book's catalog row if the remote does not
	// have it yet. History rows reference books by foreign key, so an
	// upsert failing with ErrMissingReference is healed by EnsureBook
	// plus one retry.
	EnsureBook(ctx context.Context, book *domain.Book) error

	// Close releases client resources.
	Close() error
}
