package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gleamverse/readsync/internal/catalog"
	"github.com/gleamverse/readsync/internal/config"
	"github.com/gleamverse/readsync/internal/domain"
	domainerrors "github.com/gleamverse/readsync/internal/errors"
	"github.com/gleamverse/readsync/internal/ratelimit"
	"github.com/gleamverse/readsync/internal/remote"
	"github.com/gleamverse/readsync/internal/sse"
	"github.com/gleamverse/readsync/internal/store"
)

// cleanupTask is a fire-and-forget remote delete for an evicted
// history row.
type cleanupTask struct {
	ownerID string
	bookID  string
}

// HistoryService tracks per-owner reading history with a fixed
// capacity. The local cache answers immediately; the remote store is
// reconciled around it and never blocks a page turn.
type HistoryService struct {
	store      *store.Store
	remote     remote.Client
	catalog    *catalog.Catalog
	sseManager *sse.Manager
	logger     *slog.Logger

	capacity int
	debounce time.Duration

	// mu serializes cached-history read-modify-write cycles. Without it
	// two concurrent page turns can each load the same snapshot and the
	// second write erases the first book's record.
	mu sync.Mutex

	// warnLimiter bounds how often remote failures are surfaced per
	// owner, so a dead network does not warn on every page turn.
	warnLimiter *ratelimit.KeyedRateLimiter

	// reconcileTimers holds the per-owner debounce timer for remote
	// change notifications. A new notification cancels and replaces
	// the pending timer.
	timerMu         sync.Mutex
	reconcileTimers map[string]*time.Timer

	cleanup chan cleanupTask
	wg      sync.WaitGroup

	closeOnce sync.Once
}

// NewHistoryService creates the history tracker and starts its cleanup
// workers. Call Close to stop them.
func NewHistoryService(st *store.Store, rc remote.Client, cat *catalog.Catalog, sseManager *sse.Manager, cfg config.SyncConfig, logger *slog.Logger) *HistoryService {
	capacity := cfg.HistoryCapacity
	if capacity <= 0 {
		capacity = domain.HistoryCapacity
	}
	debounce := cfg.ReconcileDebounce
	if debounce <= 0 {
		debounce = 400 * time.Millisecond
	}
	warnInterval := cfg.WarnInterval
	if warnInterval <= 0 {
		warnInterval = time.Minute
	}
	workers := cfg.CleanupWorkers
	if workers <= 0 {
		workers = 2
	}

	s := &HistoryService{
		store:           st,
		remote:          rc,
		catalog:         cat,
		sseManager:      sseManager,
		logger:          logger,
		capacity:        capacity,
		debounce:        debounce,
		warnLimiter:     ratelimit.NewInterval(warnInterval),
		reconcileTimers: make(map[string]*time.Timer),
		cleanup:         make(chan cleanupTask, 64),
	}

	for range workers {
		s.wg.Add(1)
		go s.cleanupWorker()
	}

	return s
}

// Close stops the cleanup workers and pending reconcile timers.
func (s *HistoryService) Close() {
	s.closeOnce.Do(func() {
		s.timerMu.Lock()
		for owner, timer := range s.reconcileTimers {
			timer.Stop()
			delete(s.reconcileTimers, owner)
		}
		s.timerMu.Unlock()

		close(s.cleanup)
		s.wg.Wait()
		s.warnLimiter.Stop()
	})
}

// syncsRemotely reports whether this owner's state is mirrored to the
// remote store. Guest state never leaves the device.
func (s *HistoryService) syncsRemotely(ownerID string) bool {
	return s.remote.Enabled() && ownerID != domain.GuestOwnerID
}

// Load returns the owner's history, most recently read first. With a
// remote configured the remote copy wins and refreshes the cache; when
// it is unreachable the cached copy is served and the failure is
// surfaced at most once per warn interval.
func (s *HistoryService) Load(ctx context.Context, ownerID string) ([]*domain.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !s.syncsRemotely(ownerID) {
		return s.store.GetHistory(ctx, ownerID)
	}

	records, err := s.remote.FetchHistory(ctx, ownerID)
	if err != nil {
		s.warnRemote(ownerID, "load history", err)
		return s.store.GetHistory(ctx, ownerID)
	}

	records = s.enforceCapacity(ownerID, records)

	s.mu.Lock()
	err = s.store.PutHistory(ctx, ownerID, records)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("failed to refresh history cache", "owner_id", ownerID, "error", err)
	}
	return records, nil
}

// UpdateProgress records that the owner reached page in the given book.
// The local cache and connected readers update immediately; the remote
// write happens in-line but a failure leaves the local record in place.
func (s *HistoryService) UpdateProgress(ctx context.Context, ownerID, bookID string, page int) (*domain.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	book, err := s.catalog.Get(bookID)
	if err != nil {
		return nil, err
	}

	// Page numbers outside the book are clamped, not rejected: the
	// reader can briefly point past the end in double-page mode.
	if page < 1 {
		page = 1
	}
	if page > book.TotalPages {
		page = book.TotalPages
	}

	record := &domain.HistoryRecord{
		OwnerID:    ownerID,
		BookID:     bookID,
		LastPage:   page,
		TotalPages: book.TotalPages,
		LastReadAt: time.Now(),
	}

	s.mu.Lock()
	records, err := s.store.GetHistory(ctx, ownerID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("load cached history: %w", err)
	}

	records = upsertRecord(records, record)
	records = s.enforceCapacity(ownerID, records)

	err = s.store.PutHistory(ctx, ownerID, records)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("cache history: %w", err)
	}

	s.sseManager.EmitToOwner(ownerID, sse.NewEvent(sse.EventHistoryUpdated, "", record))

	if s.syncsRemotely(ownerID) {
		if err := s.pushRecord(ctx, book, record); err != nil {
			s.warnRemote(ownerID, "sync progress", err)
		}
	}

	return record, nil
}

// pushRecord upserts a history row. A foreign-key gap, meaning the
// remote has never seen this book, is healed with EnsureBook plus one
// retry. Any other failure is returned as is: a transient outage is not
// fixed by inserting catalog rows.
func (s *HistoryService) pushRecord(ctx context.Context, book *domain.Book, record *domain.HistoryRecord) error {
	err := s.remote.UpsertHistory(ctx, record)
	if err == nil || !domainerrors.Is(err, remote.ErrMissingReference) {
		return err
	}

	if ensureErr := s.remote.EnsureBook(ctx, book); ensureErr != nil {
		return err
	}
	return s.remote.UpsertHistory(ctx, record)
}

// GetProgress returns the owner's progress view for a book.
func (s *HistoryService) GetProgress(ctx context.Context, ownerID, bookID string) (*domain.Progress, error) {
	records, err := s.store.GetHistory(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.BookID == bookID {
			progress := r.Progress()
			return &progress, nil
		}
	}
	return nil, ErrNotInHistory
}

// Remove deletes a book from the owner's history locally and remotely.
func (s *HistoryService) Remove(ctx context.Context, ownerID, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	records, err := s.store.GetHistory(ctx, ownerID)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load cached history: %w", err)
	}

	kept := make([]*domain.HistoryRecord, 0, len(records))
	found := false
	for _, r := range records {
		if r.BookID == bookID {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		s.mu.Unlock()
		return ErrNotInHistory
	}

	err = s.store.PutHistory(ctx, ownerID, kept)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("cache history: %w", err)
	}

	s.sseManager.EmitToOwner(ownerID, sse.NewEvent(sse.EventHistoryRemoved, "", map[string]string{"book_id": bookID}))

	if s.syncsRemotely(ownerID) {
		if err := s.remote.DeleteHistory(ctx, ownerID, bookID); err != nil {
			s.warnRemote(ownerID, "remove history", err)
		}
	}
	return nil
}

// ContinueReadingItem joins a history record with its catalog entry.
type ContinueReadingItem struct {
	Record *domain.HistoryRecord `json:"record"`
	Book   *domain.Book          `json:"book"`
}

// ContinueReading returns the owner's most recent books with their
// catalog entries, for the reader's "pick up where you left off" rail.
// Unfinished books come back in last-read order; a history row whose
// book has left the catalog is skipped.
func (s *HistoryService) ContinueReading(ctx context.Context, ownerID string) ([]ContinueReadingItem, error) {
	records, err := s.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	items := make([]ContinueReadingItem, 0, len(records))
	for _, r := range records {
		book, err := s.catalog.Get(r.BookID)
		if err != nil {
			continue
		}
		items = append(items, ContinueReadingItem{Record: r, Book: book})
	}
	return items, nil
}

// ReadTimes returns the LastReadAt timestamps of the owner's history,
// used by streak computation.
func (s *HistoryService) ReadTimes(ctx context.Context, ownerID string) ([]time.Time, error) {
	records, err := s.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(records))
	for _, r := range records {
		times = append(times, r.LastReadAt)
	}
	return times, nil
}

// NotifyRemoteChange schedules a reconciliation of the owner's cached
// history against the remote. Bursts of notifications within the
// debounce window collapse into a single fetch; each new notification
// cancels and replaces the pending one.
func (s *HistoryService) NotifyRemoteChange(ownerID string) {
	if !s.syncsRemotely(ownerID) {
		return
	}

	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if timer, ok := s.reconcileTimers[ownerID]; ok {
		timer.Stop()
	}
	s.reconcileTimers[ownerID] = time.AfterFunc(s.debounce, func() {
		s.timerMu.Lock()
		delete(s.reconcileTimers, ownerID)
		s.timerMu.Unlock()

		s.reconcile(ownerID)
	})
}

// reconcile refreshes the cache from the remote and notifies readers.
func (s *HistoryService) reconcile(ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := s.remote.FetchHistory(ctx, ownerID)
	if err != nil {
		s.warnRemote(ownerID, "reconcile history", err)
		return
	}

	records = s.enforceCapacity(ownerID, records)

	s.mu.Lock()
	err = s.store.PutHistory(ctx, ownerID, records)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("failed to cache reconciled history", "owner_id", ownerID, "error", err)
		return
	}

	s.sseManager.EmitToOwner(ownerID, sse.NewEvent(sse.EventHistoryUpdated, "", records))
	s.logger.Debug("history reconciled", "owner_id", ownerID, "records", len(records))
}

// enforceCapacity trims records to the capacity, queueing remote
// deletes for the evicted rows.
func (s *HistoryService) enforceCapacity(ownerID string, records []*domain.HistoryRecord) []*domain.HistoryRecord {
	kept, evicted := domain.CapHistory(records, s.capacity)
	if len(evicted) == 0 {
		return kept
	}

	s.logger.Debug("history capacity reached, evicting oldest",
		"owner_id", ownerID, "evicted", len(evicted))

	if s.syncsRemotely(ownerID) {
		for _, r := range evicted {
			select {
			case s.cleanup <- cleanupTask{ownerID: ownerID, bookID: r.BookID}:
			default:
				// Queue full. The stale row stays on the remote and is
				// re-evicted on the next fetch.
				s.logger.Warn("cleanup queue full, skipping evicted row",
					"owner_id", ownerID, "book_id", r.BookID)
			}
		}
	}
	return kept
}

// cleanupWorker drains the eviction queue. Failures are logged and
// dropped: an undeleted remote row is re-evicted on the next fetch.
func (s *HistoryService) cleanupWorker() {
	defer s.wg.Done()

	for task := range s.cleanup {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.remote.DeleteHistory(ctx, task.ownerID, task.bookID)
		cancel()
		if err != nil {
			s.logger.Debug("failed to delete evicted history row",
				"owner_id", task.ownerID, "book_id", task.bookID, "error", err)
		}
	}
}

// warnRemote logs a remote failure at most once per warn interval per
// owner, at debug level otherwise.
func (s *HistoryService) warnRemote(ownerID, op string, err error) {
	if s.warnLimiter.Allow(ownerID) {
		s.logger.Warn("remote store unavailable, serving local state",
			"owner_id", ownerID, "op", op, "error", err)
		return
	}
	s.logger.Debug("remote store still unavailable",
		"owner_id", ownerID, "op", op, "error", err)
}

// upsertRecord replaces the record for the same book or appends.
func upsertRecord(records []*domain.HistoryRecord, record *domain.HistoryRecord) []*domain.HistoryRecord {
	for i, r := range records {
		if r.BookID == record.BookID {
			records[i] = record
			return records
		}
	}
	return append(records, record)
}
