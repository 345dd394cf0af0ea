package remote

import (
	"context"
	"sync"

	"github.com/gleamverse/readsync/internal/domain"
)

// Fake is an in-memory Client with scriptable failures. Service tests
// use it to exercise rollback and retry paths without a network.
type Fake struct {
	mu sync.Mutex

	history   map[string]map[string]*domain.HistoryRecord // ownerID -> bookID -> record
	bookmarks map[string]domain.BookmarkSet               // ownerID -> set
	goals     map[string]map[string]*domain.ReadingGoal   // ownerID -> goalID -> goal
	books     map[string]*domain.Book

	// Errors to inject, consumed in order, one per matching call.
	// A nil entry means the call succeeds.
	failures map[string][]error

	// Calls records method names in invocation order.
	Calls []string
}

// NewFake creates an empty fake remote.
func NewFake() *Fake {
	return &Fake{
		history:   map[string]map[string]*domain.HistoryRecord{},
		bookmarks: map[string]domain.BookmarkSet{},
		goals:     map[string]map[string]*domain.ReadingGoal{},
		books:     map[string]*domain.Book{},
		failures:  map[string][]error{},
	}
}

// FailNext queues errs to be returned by the next len(errs) calls to
// the named method ("UpsertBookmark", "FetchHistory", ...).
func (f *Fake) FailNext(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = append(f.failures[method], errs...)
}

// CallCount returns how many times the named method was invoked.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

// takeFailure pops the next scripted error for method, recording the call.
// Caller must hold f.mu.
func (f *Fake) takeFailure(method string) error {
	f.Calls = append(f.Calls, method)
	queue := f.failures[method]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	f.failures[method] = queue[1:]
	return err
}

// Enabled implements Client.
func (f *Fake) Enabled() bool { return true }

// Close implements Client.
func (f *Fake) Close() error { return nil }

// SeedHistory installs records without going through the call log.
func (f *Fake) SeedHistory(records ...*domain.HistoryRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		byBook, ok := f.history[r.OwnerID]
		if !ok {
			byBook = map[string]*domain.HistoryRecord{}
			f.history[r.OwnerID] = byBook
		}
		clone := *r
		byBook[r.BookID] = &clone
	}
}

// SeedBookmarks installs a bookmark set for an owner.
func (f *Fake) SeedBookmarks(ownerID string, set domain.BookmarkSet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookmarks[ownerID] = set.Clone()
}

// FetchHistory implements Client.
func (f *Fake) FetchHistory(ctx context.Context, ownerID string) ([]*domain.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("FetchHistory"); err != nil {
		return nil, err
	}

	var records []*domain.HistoryRecord
	for _, r := range f.history[ownerID] {
		clone := *r
		records = append(records, &clone)
	}
	domain.SortHistory(records)
	return records, nil
}

// UpsertHistory implements Client.
func (f *Fake) UpsertHistory(ctx context.Context, record *domain.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("UpsertHistory"); err != nil {
		return err
	}

	byBook, ok := f.history[record.OwnerID]
	if !ok {
		byBook = map[string]*domain.HistoryRecord{}
		f.history[record.OwnerID] = byBook
	}
	clone := *record
	byBook[record.BookID] = &clone
	return nil
}

// DeleteHistory implements Client.
func (f *Fake) DeleteHistory(ctx context.Context, ownerID, bookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("DeleteHistory"); err != nil {
		return err
	}
	delete(f.history[ownerID], bookID)
	return nil
}

// FetchBookmarks implements Client.
func (f *Fake) FetchBookmarks(ctx context.Context, ownerID string) (domain.BookmarkSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("FetchBookmarks"); err != nil {
		return nil, err
	}
	set, ok := f.bookmarks[ownerID]
	if !ok {
		return domain.BookmarkSet{}, nil
	}
	return set.Clone(), nil
}

// UpsertBookmark implements Client.
func (f *Fake) UpsertBookmark(ctx context.Context, ownerID string, entry domain.BookmarkEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("UpsertBookmark"); err != nil {
		return err
	}
	set, ok := f.bookmarks[ownerID]
	if !ok {
		set = domain.BookmarkSet{}
		f.bookmarks[ownerID] = set
	}
	set[entry.BookID] = entry
	return nil
}

// DeleteBookmark implements Client.
func (f *Fake) DeleteBookmark(ctx context.Context, ownerID, bookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("DeleteBookmark"); err != nil {
		return err
	}
	delete(f.bookmarks[ownerID], bookID)
	return nil
}

// FetchGoals implements Client.
func (f *Fake) FetchGoals(ctx context.Context, ownerID string) ([]*domain.ReadingGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("FetchGoals"); err != nil {
		return nil, err
	}
	var goals []*domain.ReadingGoal
	for _, g := range f.goals[ownerID] {
		clone := *g
		goals = append(goals, &clone)
	}
	return goals, nil
}

// UpsertGoal implements Client.
func (f *Fake) UpsertGoal(ctx context.Context, goal *domain.ReadingGoal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("UpsertGoal"); err != nil {
		return err
	}
	byID, ok := f.goals[goal.OwnerID]
	if !ok {
		byID = map[string]*domain.ReadingGoal{}
		f.goals[goal.OwnerID] = byID
	}
	clone := *goal
	byID[goal.ID] = &clone
	return nil
}

// DeleteGoal implements Client.
func (f *Fake) DeleteGoal(ctx context.Context, ownerID, goalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("DeleteGoal"); err != nil {
		return err
	}
	delete(f.goals[ownerID], goalID)
	return nil
}

// EnsureBook implements Client.
func (f *Fake) EnsureBook(ctx context.Context, book *domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("EnsureBook"); err != nil {
		return err
	}
	if _, exists := f.books[book.ID]; !exists {
		clone := *book
		f.books[book.ID] = &clone
	}
	return nil
}

// HasBook reports whether EnsureBook stored the book.
func (f *Fake) HasBook(bookID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.books[bookID]
	return ok
}

// HistoryFor returns the fake's stored history for an owner, sorted
// most recent first. Unlike FetchHistory it bypasses the call log and
// scripted failures, so assertions do not disturb the script.
func (f *Fake) HistoryFor(ownerID string) []*domain.HistoryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []*domain.HistoryRecord
	for _, r := range f.history[ownerID] {
		clone := *r
		records = append(records, &clone)
	}
	domain.SortHistory(records)
	return records
}

// BookmarksFor returns the fake's stored bookmark set for an owner,
// bypassing the call log and scripted failures.
func (f *Fake) BookmarksFor(ownerID string) domain.BookmarkSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.bookmarks[ownerID]
	if !ok {
		return domain.BookmarkSet{}
	}
	return set.Clone()
}
