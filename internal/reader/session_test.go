package reader_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gleamverse/readsync/internal/catalog"
	"github.com/gleamverse/readsync/internal/config"
	"github.com/gleamverse/readsync/internal/domain"
	"github.com/gleamverse/readsync/internal/reader"
	"github.com/gleamverse/readsync/internal/remote"
	"github.com/gleamverse/readsync/internal/service"
	"github.com/gleamverse/readsync/internal/sse"
	"github.com/gleamverse/readsync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionEnv struct {
	history   *service.HistoryService
	bookmarks *service.BookmarkService
	catalog   *catalog.Catalog
	logger    *slog.Logger
}

func newSessionEnv(t *testing.T) *sessionEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "readsync-reader-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(filepath.Join(tmpDir, "cache.db"), nil)
	require.NoError(t, err)

	cat, err := catalog.New("", logger)
	require.NoError(t, err)

	fake := remote.NewFake()
	manager := sse.NewManager(logger)

	history := service.NewHistoryService(st, fake, cat, manager, config.SyncConfig{}, logger)
	bookmarks := service.NewBookmarkService(st, fake, cat, manager, logger)

	t.Cleanup(func() {
		history.Close()
		cat.Close()
		st.Close()
		os.RemoveAll(tmpDir)
	})

	return &sessionEnv{history: history, bookmarks: bookmarks, catalog: cat, logger: logger}
}

func (e *sessionEnv) open(t *testing.T, ownerID, bookID string, mode reader.PageMode) *reader.Session {
	t.Helper()
	book, err := e.catalog.Get(bookID)
	require.NoError(t, err)
	session, err := reader.NewSession(context.Background(), e.history, e.bookmarks, ownerID, book, mode, e.logger)
	require.NoError(t, err)
	return session
}

func TestSessionStartsAtPageOne(t *testing.T) {
	env := newSessionEnv(t)
	session := env.open(t, "user-1", "frankenstein", reader.ModeSingle)
	assert.Equal(t, 1, session.Page())
}

func TestSessionResumesAtLastReadPage(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	_, err := env.history.UpdateProgress(ctx, "user-1", "frankenstein", 57)
	require.NoError(t, err)

	session := env.open(t, "user-1", "frankenstein", reader.ModeSingle)
	assert.Equal(t, 57, session.Page())
}

func TestTurnToRecordsProgress(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	session := env.open(t, "user-1", "frankenstein", reader.ModeSingle)

	result, err := session.TurnTo(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Page)
	assert.Equal(t, []int{29, 30, 31}, result.Preload)
	assert.False(t, result.Finished)

	progress, err := env.history.GetProgress(ctx, "user-1", "frankenstein")
	require.NoError(t, err)
	assert.Equal(t, 30, progress.CurrentPage)
}

func TestTurnToDoubleModeNormalizesEvenPages(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	session := env.open(t, "user-1", "frankenstein", reader.ModeDouble)

	result, err := session.TurnTo(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 9, result.Page)
	// The preload window stays centered on the requested page 10, not
	// on the spread anchor.
	assert.Equal(t, []int{8, 9, 10, 11, 12}, result.Preload)
}

func TestNextAndPrevStepByMode(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	single := env.open(t, "user-1", "frankenstein", reader.ModeSingle)
	_, err := single.TurnTo(ctx, 10)
	require.NoError(t, err)

	result, err := single.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, result.Page)

	result, err = single.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Page)

	double := env.open(t, "user-2", "frankenstein", reader.ModeDouble)
	_, err = double.TurnTo(ctx, 11)
	require.NoError(t, err)

	result, err = double.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, result.Page)
}

func TestPrevClampsAtFirstPage(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	session := env.open(t, "user-1", "frankenstein", reader.ModeSingle)

	result, err := session.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
}

func TestFinishingBookCompletesBookmark(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	require.NoError(t, env.bookmarks.Add(ctx, "user-1", "frankenstein", domain.StatusPlanning))

	session := env.open(t, "user-1", "frankenstein", reader.ModeSingle)

	// First turn moves the planned book to reading.
	_, err := session.TurnTo(ctx, 5)
	require.NoError(t, err)

	set, err := env.bookmarks.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReading, set["frankenstein"].Status)

	// Reaching the last page completes it.
	result, err := session.TurnTo(ctx, 280)
	require.NoError(t, err)
	assert.True(t, result.Finished)

	set, err = env.bookmarks.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, set["frankenstein"].Status)
}

func TestOpeningAtFirstPageKeepsPlanningStatus(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	require.NoError(t, env.bookmarks.Add(ctx, "user-1", "frankenstein", domain.StatusPlanning))

	session := env.open(t, "user-1", "frankenstein", reader.ModeSingle)

	// Landing on page 1 is just opening the book, not reading it.
	result, err := session.TurnTo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)

	set, err := env.bookmarks.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlanning, set["frankenstein"].Status)

	// The next real page turn starts it.
	_, err = session.Next(ctx)
	require.NoError(t, err)

	set, err = env.bookmarks.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReading, set["frankenstein"].Status)
}

func TestChapterJumps(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	// Frankenstein has 280 pages, so a chapter step is 28.
	session := env.open(t, "user-1", "frankenstein", reader.ModeSingle)

	result, err := session.NextChapter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 29, result.Page)

	result, err = session.PrevChapter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)

	// Short books never step less than ten pages.
	short := env.open(t, "user-1", "the-time-machine", reader.ModeSingle)
	result, err = short.NextChapter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, result.Page)
}

func TestSetModeReanchors(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	session := env.open(t, "user-1", "frankenstein", reader.ModeSingle)
	_, err := session.TurnTo(ctx, 10)
	require.NoError(t, err)

	result, err := session.SetMode(ctx, reader.ModeDouble)
	require.NoError(t, err)
	assert.Equal(t, 9, result.Page)
	assert.Equal(t, reader.ModeDouble, session.Mode())
}

func TestNewSessionRejectsUnknownMode(t *testing.T) {
	env := newSessionEnv(t)

	book, err := env.catalog.Get("frankenstein")
	require.NoError(t, err)

	_, err = reader.NewSession(context.Background(), env.history, env.bookmarks, "user-1", book, "triple", env.logger)
	assert.Error(t, err)
}

func TestObserveRenderLatency(t *testing.T) {
	env := newSessionEnv(t)
	session := env.open(t, "user-1", "frankenstein", reader.ModeSingle)

	// Under and over budget both return without side effects visible
	// here; the over-budget case logs a warning.
	session.ObserveRenderLatency(1, 20*time.Millisecond)
	session.ObserveRenderLatency(2, 900*time.Millisecond)
}
