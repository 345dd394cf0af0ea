package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gleamverse/readsync/internal/catalog"
	"github.com/gleamverse/readsync/internal/domain"
	domainerrors "github.com/gleamverse/readsync/internal/errors"
	"github.com/gleamverse/readsync/internal/remote"
	"github.com/gleamverse/readsync/internal/sse"
	"github.com/gleamverse/readsync/internal/store"
)

// GoalReconciler recomputes goal completion when bookmark statuses
// change. Declared here to avoid a circular dependency between the
// bookmark and goal services.
type GoalReconciler interface {
	ReconcileForOwner(ctx context.Context, ownerID string, statuses map[string]domain.BookmarkStatus)
}

// BookmarkService manages the owner's library with optimistic local
// updates. Every mutation applies to the cache first, then syncs to the
// remote; a remote failure rolls the cache back to its pre-mutation
// snapshot, so readers never see state the remote refused.
type BookmarkService struct {
	store      *store.Store
	remote     remote.Client
	catalog    *catalog.Catalog
	sseManager *sse.Manager
	logger     *slog.Logger

	goals GoalReconciler

	// mu serializes mutations so a rollback restores the true
	// pre-mutation snapshot rather than another mutation's
	// intermediate state.
	mu sync.Mutex
}

// NewBookmarkService creates a new bookmark service.
func NewBookmarkService(st *store.Store, rc remote.Client, cat *catalog.Catalog, sseManager *sse.Manager, logger *slog.Logger) *BookmarkService {
	return &BookmarkService{
		store:      st,
		remote:     rc,
		catalog:    cat,
		sseManager: sseManager,
		logger:     logger,
	}
}

// SetGoalReconciler wires goal recomputation into bookmark mutations.
// Set after construction to avoid circular dependencies.
func (s *BookmarkService) SetGoalReconciler(reconciler GoalReconciler) {
	s.goals = reconciler
}

func (s *BookmarkService) syncsRemotely(ownerID string) bool {
	return s.remote.Enabled() && ownerID != domain.GuestOwnerID
}

// Load returns the owner's bookmark set. The remote copy wins when
// reachable and refreshes the cache; otherwise the cache is served.
func (s *BookmarkService) Load(ctx context.Context, ownerID string) (domain.BookmarkSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !s.syncsRemotely(ownerID) {
		return s.store.GetBookmarks(ctx, ownerID)
	}

	set, err := s.remote.FetchBookmarks(ctx, ownerID)
	if err != nil {
		s.logger.Warn("failed to fetch bookmarks, serving cache", "owner_id", ownerID, "error", err)
		return s.store.GetBookmarks(ctx, ownerID)
	}

	if err := s.store.PutBookmarks(ctx, ownerID, set); err != nil {
		s.logger.Warn("failed to refresh bookmark cache", "owner_id", ownerID, "error", err)
	}
	return set, nil
}

// IsBookmarked reports whether the owner has bookmarked the book,
// using the local cache only.
func (s *BookmarkService) IsBookmarked(ctx context.Context, ownerID, bookID string) (bool, error) {
	set, err := s.store.GetBookmarks(ctx, ownerID)
	if err != nil {
		return false, err
	}
	_, ok := set[bookID]
	return ok, nil
}

// Statuses returns the owner's bookID to status mapping from the cache.
func (s *BookmarkService) Statuses(ctx context.Context, ownerID string) (map[string]domain.BookmarkStatus, error) {
	set, err := s.store.GetBookmarks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return set.Statuses(), nil
}

// Add bookmarks a book with the given status. Adding an already
// bookmarked book returns a duplicate error and changes nothing.
func (s *BookmarkService) Add(ctx context.Context, ownerID, bookID string, status domain.BookmarkStatus) error {
	if status == "" {
		status = domain.StatusPlanning
	}
	if !status.Valid() {
		return domainerrors.Validationf("unknown bookmark status %q", status)
	}
	if _, err := s.catalog.Get(bookID); err != nil {
		return err
	}

	return s.mutate(ctx, ownerID, func(set domain.BookmarkSet) (sse.EventType, error) {
		if _, exists := set[bookID]; exists {
			return "", domainerrors.Duplicate("book already bookmarked")
		}
		set[bookID] = domain.BookmarkEntry{
			BookID:  bookID,
			Status:  status,
			AddedAt: time.Now(),
		}
		return sse.EventBookmarkAdded, nil
	}, func(ctx context.Context) error {
		err := s.remote.UpsertBookmark(ctx, ownerID, domain.BookmarkEntry{
			BookID:  bookID,
			Status:  status,
			AddedAt: time.Now(),
		})
		// The row already existing remotely means another session won
		// the race. The optimistic local add stands.
		if domainerrors.Is(err, remote.ErrDuplicate) {
			s.logger.Info("bookmark already existed on remote", "owner_id", ownerID, "book_id", bookID)
			return nil
		}
		return err
	})
}

// Remove deletes a bookmark. Removing a book that is not bookmarked
// returns ErrNotBookmarked.
func (s *BookmarkService) Remove(ctx context.Context, ownerID, bookID string) error {
	return s.mutate(ctx, ownerID, func(set domain.BookmarkSet) (sse.EventType, error) {
		if _, exists := set[bookID]; !exists {
			return "", ErrNotBookmarked
		}
		delete(set, bookID)
		return sse.EventBookmarkRemoved, nil
	}, func(ctx context.Context) error {
		return s.remote.DeleteBookmark(ctx, ownerID, bookID)
	})
}

// UpdateStatus moves a bookmark to a new status and recomputes goal
// completion when the move sticks.
func (s *BookmarkService) UpdateStatus(ctx context.Context, ownerID, bookID string, status domain.BookmarkStatus) error {
	if !status.Valid() {
		return domainerrors.Validationf("unknown bookmark status %q", status)
	}

	var updated domain.BookmarkEntry
	err := s.mutate(ctx, ownerID, func(set domain.BookmarkSet) (sse.EventType, error) {
		entry, exists := set[bookID]
		if !exists {
			return "", ErrNotBookmarked
		}
		entry.Status = status
		set[bookID] = entry
		updated = entry
		return sse.EventBookmarkStatusChanged, nil
	}, func(ctx context.Context) error {
		return s.remote.UpsertBookmark(ctx, ownerID, updated)
	})
	if err != nil {
		return err
	}

	s.reconcileGoals(ctx, ownerID)
	return nil
}

// Toggle flips a book's bookmark: absent books are added with the
// status (planning when empty), present books are removed. A remote
// outage is retried with doubling backoff before giving up; the
// returned bool reports whether the book ended up bookmarked.
func (s *BookmarkService) Toggle(ctx context.Context, ownerID, bookID string, status domain.BookmarkStatus) (bool, error) {
	var added bool

	err := withRetry(ctx, toggleMaxAttempts, toggleBaseBackoff, func() error {
		bookmarked, err := s.IsBookmarked(ctx, ownerID, bookID)
		if err != nil {
			return err
		}
		if bookmarked {
			added = false
			return s.Remove(ctx, ownerID, bookID)
		}
		added = true
		err = s.Add(ctx, ownerID, bookID, status)
		if domainerrors.Is(err, domainerrors.ErrDuplicate) {
			// Lost a race with another session; the book is bookmarked
			// either way.
			return nil
		}
		return err
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// ClearAll removes every bookmark for the owner.
func (s *BookmarkService) ClearAll(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot, err := s.store.GetBookmarks(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("load cached bookmarks: %w", err)
	}
	if len(snapshot) == 0 {
		return nil
	}

	if err := s.store.PutBookmarks(ctx, ownerID, domain.BookmarkSet{}); err != nil {
		return fmt.Errorf("cache bookmarks: %w", err)
	}

	if s.syncsRemotely(ownerID) {
		for bookID := range snapshot {
			if err := s.remote.DeleteBookmark(ctx, ownerID, bookID); err != nil {
				// Roll back the whole clear so local and remote agree.
				if restoreErr := s.store.PutBookmarks(ctx, ownerID, snapshot); restoreErr != nil {
					s.logger.Error("failed to restore bookmarks after rollback",
						"owner_id", ownerID, "error", restoreErr)
				}
				return fmt.Errorf("clear bookmarks: %w", err)
			}
		}
	}

	s.sseManager.EmitToOwner(ownerID, sse.NewEvent(sse.EventBookmarkRemoved, "", map[string]any{"cleared": true}))
	s.reconcileGoals(ctx, ownerID)
	return nil
}

// AdvanceOnProgress moves a bookmark along its lifecycle as the owner
// reads: a planned book becomes reading once the owner advances past
// page 1, and any bookmarked book becomes completed when the last page
// is reached. Opening a book at its first page is not yet reading it.
// Books that are not bookmarked are left alone.
func (s *BookmarkService) AdvanceOnProgress(ctx context.Context, ownerID, bookID string, page int, finished bool) error {
	set, err := s.store.GetBookmarks(ctx, ownerID)
	if err != nil {
		return err
	}

	entry, exists := set[bookID]
	if !exists {
		return nil
	}

	var next domain.BookmarkStatus
	switch {
	case finished && entry.Status != domain.StatusCompleted:
		next = domain.StatusCompleted
	case !finished && page > 1 && entry.Status == domain.StatusPlanning:
		next = domain.StatusReading
	default:
		return nil
	}

	return s.UpdateStatus(ctx, ownerID, bookID, next)
}

// mutate runs an optimistic bookmark mutation: snapshot, apply locally,
// sync remotely, roll back on failure. apply returns the SSE event to
// emit once the mutation sticks.
func (s *BookmarkService) mutate(
	ctx context.Context,
	ownerID string,
	apply func(set domain.BookmarkSet) (sse.EventType, error),
	sync func(ctx context.Context) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := s.store.GetBookmarks(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("load cached bookmarks: %w", err)
	}

	snapshot := current.Clone()

	eventType, err := apply(current)
	if err != nil {
		return err
	}

	if err := s.store.PutBookmarks(ctx, ownerID, current); err != nil {
		return fmt.Errorf("cache bookmarks: %w", err)
	}

	if s.syncsRemotely(ownerID) {
		if err := sync(ctx); err != nil {
			if restoreErr := s.store.PutBookmarks(ctx, ownerID, snapshot); restoreErr != nil {
				s.logger.Error("failed to restore bookmarks after rollback",
					"owner_id", ownerID, "error", restoreErr)
			}
			return fmt.Errorf("sync bookmarks: %w", err)
		}
	}

	s.sseManager.EmitToOwner(ownerID, sse.NewEvent(eventType, "", current))
	return nil
}

// reconcileGoals pushes the current statuses into goal recomputation.
func (s *BookmarkService) reconcileGoals(ctx context.Context, ownerID string) {
	if s.goals == nil {
		return
	}
	statuses, err := s.Statuses(ctx, ownerID)
	if err != nil {
		s.logger.Warn("failed to load statuses for goal reconciliation", "owner_id", ownerID, "error", err)
		return
	}
	s.goals.ReconcileForOwner(ctx, ownerID, statuses)
}
