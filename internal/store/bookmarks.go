package store

import (
	"context"

	"github.com/gleamverse/readsync/internal/domain"
)

const bookmarkPrefix = "bookmarks:"

// GetBookmarks retrieves the cached bookmark set for an owner.
// An owner with no cached bookmarks gets an empty set.
func (s *Store) GetBookmarks(ctx context.Context, ownerID string) (domain.BookmarkSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var set domain.BookmarkSet
	err := s.get([]byte(bookmarkPrefix+ownerID), &set)
	if isNotFound(err) {
		return domain.BookmarkSet{}, nil
	}
	if err != nil {
		return nil, err
	}
	if set == nil {
		set = domain.BookmarkSet{}
	}
	return set, nil
}

// PutBookmarks replaces the cached bookmark set for an owner.
func (s *Store) PutBookmarks(ctx context.Context, ownerID string, set domain.BookmarkSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(bookmarkPrefix+ownerID), set)
}

// DeleteBookmarks removes the cached bookmark set for an owner.
func (s *Store) DeleteBookmarks(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete([]byte(bookmarkPrefix + ownerID))
}
