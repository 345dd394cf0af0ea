package reader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gleamverse/readsync/internal/domain"
	domainerrors "github.com/gleamverse/readsync/internal/errors"
	"github.com/gleamverse/readsync/internal/service"
)

// chapterStepFloor is the minimum page jump for books without an
// outline. Short books step at least this far, long books step a tenth
// of their length.
const chapterStepFloor = 10

// Session is one owner reading one book. Page turns update history and
// bookmark lifecycle and produce a preload plan for the renderer.
type Session struct {
	history   *service.HistoryService
	bookmarks *service.BookmarkService
	logger    *slog.Logger

	ownerID string
	book    *domain.Book

	mu        sync.Mutex
	mode      PageMode
	page      int
	preloader *Preloader
}

// TurnResult is what a page turn gives the renderer.
type TurnResult struct {
	// Page is the page actually landed on after mode normalization
	// and clamping.
	Page int `json:"page"`
	// Preload lists pages the renderer should warm up now.
	Preload []int `json:"preload,omitempty"`
	// Finished reports whether the book's last page has been reached.
	Finished bool `json:"finished"`
}

// NewSession opens a session at the owner's last-read page, or page 1
// for a first read. Mode defaults to single when empty.
func NewSession(ctx context.Context, history *service.HistoryService, bookmarks *service.BookmarkService, ownerID string, book *domain.Book, mode PageMode, logger *slog.Logger) (*Session, error) {
	if mode == "" {
		mode = ModeSingle
	}
	if !mode.Valid() {
		return nil, domainerrors.Validationf("unknown page mode %q", mode)
	}

	page := 1
	if progress, err := history.GetProgress(ctx, ownerID, book.ID); err == nil {
		page = progress.CurrentPage
	}

	return &Session{
		history:   history,
		bookmarks: bookmarks,
		logger:    logger,
		ownerID:   ownerID,
		book:      book,
		mode:      mode,
		page:      mode.NormalizePage(page),
		preloader: NewPreloader(book.TotalPages, logger),
	}, nil
}

// Page returns the current page.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Mode returns the current page mode.
func (s *Session) Mode() PageMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Book returns the book being read.
func (s *Session) Book() *domain.Book {
	return s.book
}

// SetMode switches layout, re-anchoring the current page for the new
// mode.
func (s *Session) SetMode(ctx context.Context, mode PageMode) (*TurnResult, error) {
	if !mode.Valid() {
		return nil, domainerrors.Validationf("unknown page mode %q", mode)
	}

	s.mu.Lock()
	s.mode = mode
	page := s.page
	s.mu.Unlock()

	return s.TurnTo(ctx, page)
}

// TurnTo jumps to a page, recording progress and returning the preload
// plan. Out-of-range pages clamp to the book's bounds.
func (s *Session) TurnTo(ctx context.Context, page int) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page < 1 {
		page = 1
	}
	if page > s.book.TotalPages {
		page = s.book.TotalPages
	}

	// The session lands on the spread anchor, but the preload window
	// stays centered on the page the reader asked for.
	requested := page
	page = s.mode.NormalizePage(page)
	if page < 1 {
		page = 1
	}
	s.page = page

	record, err := s.history.UpdateProgress(ctx, s.ownerID, s.book.ID, page)
	if err != nil {
		return nil, err
	}

	finished := record.IsFinished()
	if err := s.bookmarks.AdvanceOnProgress(ctx, s.ownerID, s.book.ID, page, finished); err != nil {
		// Lifecycle advance is best effort; the page turn itself
		// already succeeded.
		s.logger.Warn("failed to advance bookmark status",
			"owner_id", s.ownerID, "book_id", s.book.ID, "error", err)
	}

	return &TurnResult{
		Page:     page,
		Preload:  s.preloader.Visit(requested, s.mode),
		Finished: finished,
	}, nil
}

// Next advances one step: a single page, or a full spread in double
// mode.
func (s *Session) Next(ctx context.Context) (*TurnResult, error) {
	return s.TurnTo(ctx, s.Page()+s.step())
}

// Prev goes back one step.
func (s *Session) Prev(ctx context.Context) (*TurnResult, error) {
	return s.TurnTo(ctx, s.Page()-s.step())
}

// NextChapter jumps forward a chapter. Without an outline in the PDF
// the jump falls back to a fixed fraction of the book.
func (s *Session) NextChapter(ctx context.Context) (*TurnResult, error) {
	return s.TurnTo(ctx, s.Page()+s.chapterStep())
}

// PrevChapter jumps back a chapter.
func (s *Session) PrevChapter(ctx context.Context) (*TurnResult, error) {
	return s.TurnTo(ctx, s.Page()-s.chapterStep())
}

// ObserveRenderLatency forwards a render timing to the preloader.
func (s *Session) ObserveRenderLatency(page int, d time.Duration) {
	s.preloader.ObserveRenderLatency(page, d)
}

func (s *Session) step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeDouble {
		return 2
	}
	return 1
}

// chapterStep is a tenth of the book, but never less than the floor.
func (s *Session) chapterStep() int {
	step := s.book.TotalPages / 10
	if step < chapterStepFloor {
		step = chapterStepFloor
	}
	return step
}
