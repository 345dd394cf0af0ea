package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gleamverse/readsync/internal/domain"
	"github.com/gleamverse/readsync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "readsync-store-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "cache.db")
	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

func TestHistoryRoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	records := []*domain.HistoryRecord{
		{OwnerID: "user-1", BookID: "book-a", LastPage: 12, TotalPages: 200, LastReadAt: now.Add(-time.Hour)},
		{OwnerID: "user-1", BookID: "book-b", LastPage: 90, TotalPages: 100, LastReadAt: now},
	}

	err := s.PutHistory(ctx, "user-1", records)
	require.NoError(t, err)

	got, err := s.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Most recently read first, regardless of stored order.
	assert.Equal(t, "book-b", got[0].BookID)
	assert.Equal(t, "book-a", got[1].BookID)
	assert.Equal(t, 90, got[0].LastPage)
	assert.True(t, got[0].LastReadAt.Equal(now))
}

func TestGetHistoryMissingOwner(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := s.GetHistory(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPutHistoryReplacesSnapshot(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	err := s.PutHistory(ctx, "user-1", []*domain.HistoryRecord{
		{OwnerID: "user-1", BookID: "book-a", LastPage: 1, TotalPages: 10, LastReadAt: now},
		{OwnerID: "user-1", BookID: "book-b", LastPage: 2, TotalPages: 10, LastReadAt: now},
	})
	require.NoError(t, err)

	err = s.PutHistory(ctx, "user-1", []*domain.HistoryRecord{
		{OwnerID: "user-1", BookID: "book-c", LastPage: 3, TotalPages: 10, LastReadAt: now},
	})
	require.NoError(t, err)

	got, err := s.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "book-c", got[0].BookID)
}

func TestDeleteHistory(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	err := s.PutHistory(ctx, "user-1", []*domain.HistoryRecord{
		{OwnerID: "user-1", BookID: "book-a", LastPage: 1, TotalPages: 10, LastReadAt: time.Now()},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteHistory(ctx, "user-1"))

	got, err := s.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting again is not an error.
	assert.NoError(t, s.DeleteHistory(ctx, "user-1"))
}

func TestHistoryIsolatedPerOwner(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.PutHistory(ctx, "user-1", []*domain.HistoryRecord{
		{OwnerID: "user-1", BookID: "book-a", LastPage: 1, TotalPages: 10, LastReadAt: now},
	}))
	require.NoError(t, s.PutHistory(ctx, domain.GuestOwnerID, []*domain.HistoryRecord{
		{OwnerID: domain.GuestOwnerID, BookID: "book-z", LastPage: 5, TotalPages: 10, LastReadAt: now},
	}))

	got, err := s.GetHistory(ctx, domain.GuestOwnerID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "book-z", got[0].BookID)
}

func TestBookmarksRoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	added := time.Now().UTC().Truncate(time.Second)

	set := domain.BookmarkSet{
		"book-a": {BookID: "book-a", Status: domain.StatusReading, AddedAt: added},
		"book-b": {BookID: "book-b", Status: domain.StatusCompleted, AddedAt: added},
	}

	require.NoError(t, s.PutBookmarks(ctx, "user-1", set))

	got, err := s.GetBookmarks(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.StatusReading, got["book-a"].Status)
	assert.Equal(t, domain.StatusCompleted, got["book-b"].Status)
}

func TestGetBookmarksMissingOwner(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := s.GetBookmarks(context.Background(), "nobody")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGoalsRoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	deadline := time.Now().AddDate(0, 3, 0)

	goals := []*domain.ReadingGoal{
		{
			ID:          "goal-1",
			OwnerID:     "user-1",
			Title:       "Summer reading",
			TargetBooks: 5,
			BookIDs:     []string{"book-a", "book-b"},
			Deadline:    &deadline,
			CreatedAt:   time.Now(),
		},
		{
			ID:          "goal-2",
			OwnerID:     "user-1",
			Title:       "Sci-fi backlog",
			TargetBooks: 3,
			CreatedAt:   time.Now(),
		},
	}

	require.NoError(t, s.PutGoals(ctx, "user-1", goals))

	got, err := s.GetGoals(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Summer reading", got[0].Title)
	assert.Equal(t, []string{"book-a", "book-b"}, got[0].BookIDs)
	require.NotNil(t, got[0].Deadline)
	assert.Nil(t, got[1].Deadline)
}

func TestClearOwner(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.PutHistory(ctx, "user-1", []*domain.HistoryRecord{
		{OwnerID: "user-1", BookID: "book-a", LastPage: 1, TotalPages: 10, LastReadAt: now},
	}))
	require.NoError(t, s.PutBookmarks(ctx, "user-1", domain.BookmarkSet{
		"book-a": {BookID: "book-a", Status: domain.StatusPlanning, AddedAt: now},
	}))
	require.NoError(t, s.PutGoals(ctx, "user-1", []*domain.ReadingGoal{
		{ID: "goal-1", OwnerID: "user-1", Title: "test", TargetBooks: 1, CreatedAt: now},
	}))

	require.NoError(t, s.ClearOwner(ctx, "user-1"))

	history, err := s.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	bookmarks, err := s.GetBookmarks(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, bookmarks)

	goals, err := s.GetGoals(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestContextCancelled(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetHistory(ctx, "user-1")
	assert.ErrorIs(t, err, context.Canceled)

	err = s.PutBookmarks(ctx, "user-1", domain.BookmarkSet{})
	assert.ErrorIs(t, err, context.Canceled)
}
