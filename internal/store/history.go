package store

import (
	"context"

	"github.com/gleamverse/readsync/internal/domain"
)

const historyPrefix = "history:"

// GetHistory retrieves the cached reading history for an owner,
// most recently read first. An owner with no cached history gets an
// empty slice, not an error: the cache is best effort by design of
// its callers, which reconcile against the remote afterwards.
func (s *Store) GetHistory(ctx context.Context, ownerID string) ([]*domain.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*domain.HistoryRecord
	err := s.get([]byte(historyPrefix+ownerID), &records)
	if isNotFound(err) {
		return []*domain.HistoryRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	domain.SortHistory(records)
	return records, nil
}

// PutHistory replaces the cached history snapshot for an owner.
func (s *Store) PutHistory(ctx context.Context, ownerID string, records []*domain.HistoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(historyPrefix+ownerID), records)
}

// DeleteHistory removes the cached history for an owner.
func (s *Store) DeleteHistory(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete([]byte(historyPrefix + ownerID))
}
