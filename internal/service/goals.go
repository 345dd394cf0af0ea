package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gleamverse/readsync/internal/domain"
	"github.com/gleamverse/readsync/internal/id"
	"github.com/gleamverse/readsync/internal/remote"
	"github.com/gleamverse/readsync/internal/sse"
	"github.com/gleamverse/readsync/internal/store"
)

// GoalService manages reading goals. Goals are local-first: the cache
// is the source of truth and the remote is a best-effort mirror, so
// goals keep working with no network at all.
type GoalService struct {
	store      *store.Store
	remote     remote.Client
	sseManager *sse.Manager
	logger     *slog.Logger

	// mu serializes goal writes so reconciliation does not interleave
	// with explicit edits.
	mu sync.Mutex
}

// NewGoalService creates a new goal service.
func NewGoalService(st *store.Store, rc remote.Client, sseManager *sse.Manager, logger *slog.Logger) *GoalService {
	return &GoalService{
		store:      st,
		remote:     rc,
		sseManager: sseManager,
		logger:     logger,
	}
}

func (s *GoalService) syncsRemotely(ownerID string) bool {
	return s.remote.Enabled() && ownerID != domain.GuestOwnerID
}

// CreateGoalInput is the request to create a goal.
type CreateGoalInput struct {
	Title       string     `json:"title" validate:"required,max=50"`
	Description string     `json:"description" validate:"max=500"`
	TargetBooks int        `json:"target_books" validate:"required,min=1,max=1000"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// UpdateGoalInput is the request to update a goal. Nil fields are left
// unchanged.
type UpdateGoalInput struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=50"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	TargetBooks *int       `json:"target_books,omitempty" validate:"omitempty,min=1,max=1000"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// Create validates and stores a new goal.
func (s *GoalService) Create(ctx context.Context, ownerID string, input CreateGoalInput) (*domain.ReadingGoal, error) {
	if err := validate.Struct(input); err != nil {
		return nil, formatValidationError(err)
	}

	goalID, err := id.Generate("goal")
	if err != nil {
		return nil, fmt.Errorf("generate goal ID: %w", err)
	}

	goal := &domain.ReadingGoal{
		ID:          goalID,
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		TargetBooks: input.TargetBooks,
		BookIDs:     []string{},
		Deadline:    input.Deadline,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.store.GetGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load cached goals: %w", err)
	}
	goals = append(goals, goal)

	if err := s.store.PutGoals(ctx, ownerID, goals); err != nil {
		return nil, fmt.Errorf("cache goals: %w", err)
	}

	s.mirror(ctx, ownerID, goal)
	s.sseManager.EmitToOwner(ownerID, sse.NewEvent(sse.EventGoalCreated, "", goal))

	s.logger.Info("goal created",
		"goal_id", goalID,
		"owner_id", ownerID,
		"target_books", input.TargetBooks)
	return goal, nil
}

// List returns the owner's goals in creation order.
func (s *GoalService) List(ctx context.Context, ownerID string) ([]*domain.ReadingGoal, error) {
	return s.store.GetGoals(ctx, ownerID)
}

// Get returns one goal by ID.
func (s *GoalService) Get(ctx context.Context, ownerID, goalID string) (*domain.ReadingGoal, error) {
	goals, err := s.store.GetGoals(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		if g.ID == goalID {
			return g, nil
		}
	}
	return nil, ErrGoalNotFound
}

// Update applies partial changes to a goal.
func (s *GoalService) Update(ctx context.Context, ownerID, goalID string, input UpdateGoalInput) (*domain.ReadingGoal, error) {
	if err := validate.Struct(input); err != nil {
		return nil, formatValidationError(err)
	}

	var updated *domain.ReadingGoal
	err := s.modify(ctx, ownerID, goalID, func(goal *domain.ReadingGoal) error {
		if input.Title != nil {
			if *input.Title == "" {
				return ErrGoalTitleEmpty
			}
			goal.Title = *input.Title
		}
		if input.Description != nil {
			goal.Description = *input.Description
		}
		if input.TargetBooks != nil {
			goal.TargetBooks = *input.TargetBooks
		}
		if input.Deadline != nil {
			goal.Deadline = input.Deadline
		}
		updated = goal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a goal.
func (s *GoalService) Delete(ctx context.Context, ownerID, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.store.GetGoals(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("load cached goals: %w", err)
	}

	kept := make([]*domain.ReadingGoal, 0, len(goals))
	found := false
	for _, g := range goals {
		if g.ID == goalID {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return ErrGoalNotFound
	}

	if err := s.store.PutGoals(ctx, ownerID, kept); err != nil {
		return fmt.Errorf("cache goals: %w", err)
	}

	if s.syncsRemotely(ownerID) {
		if err := s.remote.DeleteGoal(ctx, ownerID, goalID); err != nil {
			s.logger.Warn("failed to delete goal on remote", "goal_id", goalID, "error", err)
		}
	}

	s.sseManager.EmitToOwner(ownerID, sse.NewEvent(sse.EventGoalDeleted, "", map[string]string{"goal_id": goalID}))
	return nil
}

// AddBook attaches a book to a goal. Attaching the same book twice is a
// no-op.
func (s *GoalService) AddBook(ctx context.Context, ownerID, goalID, bookID string) (*domain.ReadingGoal, error) {
	var updated *domain.ReadingGoal
	err := s.modify(ctx, ownerID, goalID, func(goal *domain.ReadingGoal) error {
		if !goal.ContainsBook(bookID) {
			goal.BookIDs = append(goal.BookIDs, bookID)
		}
		updated = goal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveBook detaches a book from a goal.
func (s *GoalService) RemoveBook(ctx context.Context, ownerID, goalID, bookID string) (*domain.ReadingGoal, error) {
	var updated *domain.ReadingGoal
	err := s.modify(ctx, ownerID, goalID, func(goal *domain.ReadingGoal) error {
		kept := goal.BookIDs[:0]
		for _, id := range goal.BookIDs {
			if id != bookID {
				kept = append(kept, id)
			}
		}
		goal.BookIDs = kept
		updated = goal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReconcileForOwner recomputes CompletedBooks for every goal from the
// current bookmark statuses, persisting and announcing only the goals
// that actually changed. Implements GoalReconciler.
func (s *GoalService) ReconcileForOwner(ctx context.Context, ownerID string, statuses map[string]domain.BookmarkStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.store.GetGoals(ctx, ownerID)
	if err != nil {
		s.logger.Warn("failed to load goals for reconciliation", "owner_id", ownerID, "error", err)
		return
	}

	changed := false
	for _, goal := range goals {
		if !goal.Recompute(statuses) {
			continue
		}
		changed = true
		s.mirror(ctx, ownerID, goal)
		s.sseManager.EmitToOwner(ownerID, sse.NewEvent(sse.EventGoalUpdated, "", goal))
		s.logger.Debug("goal completion updated",
			"goal_id", goal.ID,
			"completed", goal.CompletedBooks,
			"target", goal.TargetBooks)
	}

	if !changed {
		return
	}
	if err := s.store.PutGoals(ctx, ownerID, goals); err != nil {
		s.logger.Warn("failed to cache reconciled goals", "owner_id", ownerID, "error", err)
	}
}

// modify loads a goal, applies fn, and persists the result.
func (s *GoalService) modify(ctx context.Context, ownerID, goalID string, fn func(goal *domain.ReadingGoal) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.store.GetGoals(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("load cached goals: %w", err)
	}

	for _, goal := range goals {
		if goal.ID != goalID {
			continue
		}
		if err := fn(goal); err != nil {
			return err
		}
		if err := s.store.PutGoals(ctx, ownerID, goals); err != nil {
			return fmt.Errorf("cache goals: %w", err)
		}
		s.mirror(ctx, ownerID, goal)
		s.sseManager.EmitToOwner(ownerID, sse.NewEvent(sse.EventGoalUpdated, "", goal))
		return nil
	}
	return ErrGoalNotFound
}

// mirror pushes a goal to the remote, best effort.
func (s *GoalService) mirror(ctx context.Context, ownerID string, goal *domain.ReadingGoal) {
	if !s.syncsRemotely(ownerID) {
		return
	}
	if err := s.remote.UpsertGoal(ctx, goal); err != nil {
		s.logger.Warn("failed to mirror goal to remote", "goal_id", goal.ID, "error", err)
	}
}
