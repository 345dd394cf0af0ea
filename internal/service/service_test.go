package service_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gleamverse/readsync/internal/catalog"
	"github.com/gleamverse/readsync/internal/config"
	"github.com/gleamverse/readsync/internal/remote"
	"github.com/gleamverse/readsync/internal/service"
	"github.com/gleamverse/readsync/internal/sse"
	"github.com/gleamverse/readsync/internal/store"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store     *store.Store
	fake      *remote.Fake
	catalog   *catalog.Catalog
	sse       *sse.Manager
	history   *service.HistoryService
	bookmarks *service.BookmarkService
	goals     *service.GoalService
	streaks   *service.StreakService
}

// newTestEnv wires the full engine against a temp-dir cache, the
// embedded catalog, and a fake remote. The debounce is shortened so
// reconciliation tests stay fast.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "readsync-service-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(filepath.Join(tmpDir, "cache.db"), nil)
	require.NoError(t, err)

	cat, err := catalog.New("", logger)
	require.NoError(t, err)

	fake := remote.NewFake()
	manager := sse.NewManager(logger)

	cfg := config.SyncConfig{
		HistoryCapacity:   5,
		ReconcileDebounce: 50 * time.Millisecond,
		WarnInterval:      time.Minute,
		CleanupWorkers:    2,
	}

	history := service.NewHistoryService(st, fake, cat, manager, cfg, logger)
	bookmarks := service.NewBookmarkService(st, fake, cat, manager, logger)
	goals := service.NewGoalService(st, fake, manager, logger)
	bookmarks.SetGoalReconciler(goals)

	t.Cleanup(func() {
		history.Close()
		cat.Close()
		st.Close()
		os.RemoveAll(tmpDir)
	})

	return &testEnv{
		store:     st,
		fake:      fake,
		catalog:   cat,
		sse:       manager,
		history:   history,
		bookmarks: bookmarks,
		goals:     goals,
		streaks:   service.NewStreakService(history),
	}
}
