package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/gleamverse/readsync/internal/domain"
)

const goalPrefix = "goals:"

// GetGoals retrieves the cached reading goals for an owner.
// Goals persist locally even when a remote is configured, matching the
// offline-first behavior of the goal tracker.
func (s *Store) GetGoals(ctx context.Context, ownerID string) ([]*domain.ReadingGoal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var goals []*domain.ReadingGoal
	err := s.get([]byte(goalPrefix+ownerID), &goals)
	if isNotFound(err) {
		return []*domain.ReadingGoal{}, nil
	}
	if err != nil {
		return nil, err
	}
	return goals, nil
}

// PutGoals replaces the cached goals for an owner.
func (s *Store) PutGoals(ctx context.Context, ownerID string, goals []*domain.ReadingGoal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(goalPrefix+ownerID), goals)
}

// DeleteGoals removes the cached goals for an owner.
func (s *Store) DeleteGoals(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete([]byte(goalPrefix + ownerID))
}

// ClearOwner removes every cached record for an owner in one transaction.
// Used when an owner signs out and their state should not linger on disk.
func (s *Store) ClearOwner(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, prefix := range []string{historyPrefix, bookmarkPrefix, goalPrefix} {
			if err := txn.Delete([]byte(prefix + ownerID)); err != nil {
				return err
			}
		}
		return nil
	})
}
