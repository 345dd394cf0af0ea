package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gleamverse/readsync/internal/domain"
	domainerrors "github.com/gleamverse/readsync/internal/errors"
	"github.com/gleamverse/readsync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	deadline := time.Now().AddDate(0, 6, 0)
	goal, err := env.goals.Create(ctx, "user-1", service.CreateGoalInput{
		Title:       "Summer reading",
		Description: "Catch up on the classics",
		TargetBooks: 5,
		Deadline:    &deadline,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(goal.ID, "goal-"))
	assert.Equal(t, 0, goal.CompletedBooks)

	goals, err := env.goals.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Summer reading", goals[0].Title)
}

func TestCreateGoalValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input service.CreateGoalInput
	}{
		{"empty title", service.CreateGoalInput{Title: "", TargetBooks: 3}},
		{"title too long", service.CreateGoalInput{Title: strings.Repeat("x", 51), TargetBooks: 3}},
		{"zero target", service.CreateGoalInput{Title: "ok", TargetBooks: 0}},
		{"negative target", service.CreateGoalInput{Title: "ok", TargetBooks: -1}},
		{"target too large", service.CreateGoalInput{Title: "ok", TargetBooks: 1001}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.goals.Create(ctx, "user-1", tt.input)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestUpdateGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	goal, err := env.goals.Create(ctx, "user-1", service.CreateGoalInput{
		Title:       "Before",
		TargetBooks: 3,
	})
	require.NoError(t, err)

	newTitle := "After"
	newTarget := 10
	updated, err := env.goals.Update(ctx, "user-1", goal.ID, service.UpdateGoalInput{
		Title:       &newTitle,
		TargetBooks: &newTarget,
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, 10, updated.TargetBooks)

	empty := ""
	_, err = env.goals.Update(ctx, "user-1", goal.ID, service.UpdateGoalInput{Title: &empty})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.goals.Update(ctx, "user-1", "goal-missing", service.UpdateGoalInput{Title: &newTitle})
	assert.ErrorIs(t, err, service.ErrGoalNotFound)
}

func TestDeleteGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	goal, err := env.goals.Create(ctx, "user-1", service.CreateGoalInput{
		Title:       "Doomed",
		TargetBooks: 1,
	})
	require.NoError(t, err)

	require.NoError(t, env.goals.Delete(ctx, "user-1", goal.ID))

	goals, err := env.goals.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, goals)

	assert.ErrorIs(t, env.goals.Delete(ctx, "user-1", goal.ID), service.ErrGoalNotFound)
}

func TestAddAndRemoveBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	goal, err := env.goals.Create(ctx, "user-1", service.CreateGoalInput{
		Title:       "Classics",
		TargetBooks: 2,
	})
	require.NoError(t, err)

	updated, err := env.goals.AddBook(ctx, "user-1", goal.ID, "dracula")
	require.NoError(t, err)
	assert.Equal(t, []string{"dracula"}, updated.BookIDs)

	// Adding twice is a no-op.
	updated, err = env.goals.AddBook(ctx, "user-1", goal.ID, "dracula")
	require.NoError(t, err)
	assert.Equal(t, []string{"dracula"}, updated.BookIDs)

	updated, err = env.goals.RemoveBook(ctx, "user-1", goal.ID, "dracula")
	require.NoError(t, err)
	assert.Empty(t, updated.BookIDs)
}

func TestCompletedBooksFollowBookmarkStatuses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	goal, err := env.goals.Create(ctx, "user-1", service.CreateGoalInput{
		Title:       "Horror backlog",
		TargetBooks: 2,
	})
	require.NoError(t, err)

	_, err = env.goals.AddBook(ctx, "user-1", goal.ID, "dracula")
	require.NoError(t, err)
	_, err = env.goals.AddBook(ctx, "user-1", goal.ID, "frankenstein")
	require.NoError(t, err)

	require.NoError(t, env.bookmarks.Add(ctx, "user-1", "dracula", domain.StatusReading))
	require.NoError(t, env.bookmarks.Add(ctx, "user-1", "frankenstein", domain.StatusReading))

	// Completing a bookmarked book updates the goal automatically.
	require.NoError(t, env.bookmarks.UpdateStatus(ctx, "user-1", "dracula", domain.StatusCompleted))

	got, err := env.goals.Get(ctx, "user-1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CompletedBooks)
	assert.Equal(t, 50, got.ProgressPercent())

	require.NoError(t, env.bookmarks.UpdateStatus(ctx, "user-1", "frankenstein", domain.StatusCompleted))

	got, err = env.goals.Get(ctx, "user-1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CompletedBooks)
	assert.Equal(t, 100, got.ProgressPercent())
}

func TestReconcileIgnoresBooksOutsideGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	goal, err := env.goals.Create(ctx, "user-1", service.CreateGoalInput{
		Title:       "Narrow goal",
		TargetBooks: 1,
	})
	require.NoError(t, err)
	_, err = env.goals.AddBook(ctx, "user-1", goal.ID, "dracula")
	require.NoError(t, err)

	require.NoError(t, env.bookmarks.Add(ctx, "user-1", "moby-dick", domain.StatusReading))
	require.NoError(t, env.bookmarks.UpdateStatus(ctx, "user-1", "moby-dick", domain.StatusCompleted))

	got, err := env.goals.Get(ctx, "user-1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CompletedBooks)
}

func TestGoalsWorkForGuest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.goals.Create(ctx, domain.GuestOwnerID, service.CreateGoalInput{
		Title:       "Offline goal",
		TargetBooks: 3,
	})
	require.NoError(t, err)

	goals, err := env.goals.List(ctx, domain.GuestOwnerID)
	require.NoError(t, err)
	require.Len(t, goals, 1)

	assert.Zero(t, env.fake.CallCount("UpsertGoal"))
}
