package remote

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/gleamverse/readsync/internal/config"
	"github.com/gleamverse/readsync/internal/domain"
	"github.com/gleamverse/readsync/internal/ratelimit"
)

const (
	// Rate limit: 10 requests per second per owner, burst of 20.
	// The engine debounces its own reconciliation, so this only guards
	// against pathological page-turn bursts.
	defaultRPS   = 10.0
	defaultBurst = 20

	defaultTimeout = 10 * time.Second

	historyTable  = "reading_history"
	bookmarkTable = "bookmarks"
	goalTable     = "reading_goals"
	bookTable     = "books"
)

// RESTClient is a rate-limited client for a PostgREST-style remote store.
type RESTClient struct {
	http    *http.Client
	base    *url.URL
	apiKey  string
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewREST creates a client for the remote store described by cfg.
func NewREST(cfg config.RemoteConfig, logger *slog.Logger) (*RESTClient, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &RESTClient{
		http:    &http.Client{Timeout: timeout},
		base:    base,
		apiKey:  cfg.APIKey,
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
	}, nil
}

// Enabled implements Client.
func (c *RESTClient) Enabled() bool { return true }

// Close releases resources held by the client.
func (c *RESTClient) Close() error {
	c.limiter.Stop()
	return nil
}

// Wire rows. The remote stores timestamps as RFC 3339 strings, which
// time.Time marshals to natively.

type historyRow struct {
	OwnerID    string    `json:"owner_id"`
	BookID     string    `json:"book_id"`
	LastPage   int       `json:"last_page"`
	TotalPages int       `json:"total_pages"`
	LastReadAt time.Time `json:"last_read_at"`
}

type bookmarkRow struct {
	OwnerID string    `json:"owner_id"`
	BookID  string    `json:"book_id"`
	Status  string    `json:"status"`
	AddedAt time.Time `json:"added_at"`
}

type goalRow struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	TargetBooks    int        `json:"target_books"`
	CompletedBooks int        `json:"completed_books"`
	BookIDs        []string   `json:"book_ids"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type bookRow struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author,omitempty"`
	TotalPages int    `json:"total_pages"`
	Genre      string `json:"genre,omitempty"`
}

// FetchHistory implements Client.
func (c *RESTClient) FetchHistory(ctx context.Context, ownerID string) ([]*domain.HistoryRecord, error) {
	query := url.Values{}
	query.Set("owner_id", "eq."+ownerID)
	query.Set("order", "last_read_at.desc")

	body, err := c.do(ctx, http.MethodGet, historyTable, ownerID, query, nil, "")
	if err != nil {
		return nil, err
	}

	var rows []historyRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode history rows: %w", err)
	}

	records := make([]*domain.HistoryRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, &domain.HistoryRecord{
			OwnerID:    r.OwnerID,
			BookID:     r.BookID,
			LastPage:   r.LastPage,
			TotalPages: r.TotalPages,
			LastReadAt: r.LastReadAt,
		})
	}
	return records, nil
}

// UpsertHistory implements Client. The remote resolves the
// (owner_id, book_id) conflict by merging, so repeated progress updates
// for the same book land on one row.
func (c *RESTClient) UpsertHistory(ctx context.Context, record *domain.HistoryRecord) error {
	row := historyRow{
		OwnerID:    record.OwnerID,
		BookID:     record.BookID,
		LastPage:   record.LastPage,
		TotalPages: record.TotalPages,
		LastReadAt: record.LastReadAt,
	}
	_, err := c.do(ctx, http.MethodPost, historyTable, record.OwnerID, nil, row, "resolution=merge-duplicates")
	return err
}

// DeleteHistory implements Client.
func (c *RESTClient) DeleteHistory(ctx context.Context, ownerID, bookID string) error {
	query := url.Values{}
	query.Set("owner_id", "eq."+ownerID)
	query.Set("book_id", "eq."+bookID)

	_, err := c.do(ctx, http.MethodDelete, historyTable, ownerID, query, nil, "")
	return err
}

// FetchBookmarks implements Client.
func (c *RESTClient) FetchBookmarks(ctx context.Context, ownerID string) (domain.BookmarkSet, error) {
	query := url.Values{}
	query.Set("owner_id", "eq."+ownerID)

	body, err := c.do(ctx, http.MethodGet, bookmarkTable, ownerID, query, nil, "")
	if err != nil {
		return nil, err
	}

	var rows []bookmarkRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode bookmark rows: %w", err)
	}

	set := make(domain.BookmarkSet, len(rows))
	for _, r := range rows {
		set[r.BookID] = domain.BookmarkEntry{
			BookID:  r.BookID,
			Status:  domain.BookmarkStatus(r.Status),
			AddedAt: r.AddedAt,
		}
	}
	return set, nil
}

// UpsertBookmark implements Client. The remote merges on the
// (owner_id, book_id) conflict, so the same call serves both adding a
// bookmark and changing its status. Duplicate detection happens against
// the local set before the push.
func (c *RESTClient) UpsertBookmark(ctx context.Context, ownerID string, entry domain.BookmarkEntry) error {
	row := bookmarkRow{
		OwnerID: ownerID,
		BookID:  entry.BookID,
		Status:  string(entry.Status),
		AddedAt: entry.AddedAt,
	}
	_, err := c.do(ctx, http.MethodPost, bookmarkTable, ownerID, nil, row, "resolution=merge-duplicates")
	return err
}

// DeleteBookmark implements Client.
func (c *RESTClient) DeleteBookmark(ctx context.Context, ownerID, bookID string) error {
	query := url.Values{}
	query.Set("owner_id", "eq."+ownerID)
	query.Set("book_id", "eq."+bookID)

	_, err := c.do(ctx, http.MethodDelete, bookmarkTable, ownerID, query, nil, "")
	return err
}

// FetchGoals implements Client.
func (c *RESTClient) FetchGoals(ctx context.Context, ownerID string) ([]*domain.ReadingGoal, error) {
	query := url.Values{}
	query.Set("owner_id", "eq."+ownerID)
	query.Set("order", "created_at.asc")

	body, err := c.do(ctx, http.MethodGet, goalTable, ownerID, query, nil, "")
	if err != nil {
		return nil, err
	}

	var rows []goalRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode goal rows: %w", err)
	}

	goals := make([]*domain.ReadingGoal, 0, len(rows))
	for _, r := range rows {
		goals = append(goals, &domain.ReadingGoal{
			ID:             r.ID,
			OwnerID:        r.OwnerID,
			Title:          r.Title,
			Description:    r.Description,
			TargetBooks:    r.TargetBooks,
			CompletedBooks: r.CompletedBooks,
			BookIDs:        r.BookIDs,
			Deadline:       r.Deadline,
			CreatedAt:      r.CreatedAt,
		})
	}
	return goals, nil
}

// UpsertGoal implements Client.
func (c *RESTClient) UpsertGoal(ctx context.Context, goal *domain.ReadingGoal) error {
	row := goalRow{
		ID:             goal.ID,
		OwnerID:        goal.OwnerID,
		Title:          goal.Title,
		Description:    goal.Description,
		TargetBooks:    goal.TargetBooks,
		CompletedBooks: goal.CompletedBooks,
		BookIDs:        goal.BookIDs,
		Deadline:       goal.Deadline,
		CreatedAt:      goal.CreatedAt,
	}
	_, err := c.do(ctx, http.MethodPost, goalTable, goal.OwnerID, nil, row, "resolution=merge-duplicates")
	return err
}

// DeleteGoal implements Client.
func (c *RESTClient) DeleteGoal(ctx context.Context, ownerID, goalID string) error {
	query := url.Values{}
	query.Set("owner_id", "eq."+ownerID)
	query.Set("id", "eq."+goalID)

	_, err := c.do(ctx, http.MethodDelete, goalTable, ownerID, query, nil, "")
	return err
}

// EnsureBook implements Client. Duplicate rows are ignored so the call
// is safe to repeat for every progress update.
func (c *RESTClient) EnsureBook(ctx context.Context, book *domain.Book) error {
	row := bookRow{
		ID:         book.ID,
		Title:      book.Title,
		Author:     book.Author,
		TotalPages: book.TotalPages,
		Genre:      book.Genre,
	}
	_, err := c.do(ctx, http.MethodPost, bookTable, book.ID, nil, row, "resolution=ignore-duplicates")
	return err
}

// do executes a rate-limited request against a table endpoint.
func (c *RESTClient) do(ctx context.Context, method, table, limiterKey string, query url.Values, payload any, prefer string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.base.JoinPath(table)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	c.logger.Debug("remote request", "method", method, "table", table, "request_id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ErrUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrUnavailable.WithCause(err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusConflict:
		return nil, conflictError(body)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrUnavailable.WithCause(fmt.Errorf("status %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// fkViolationCode is Postgres class 23 "foreign_key_violation". The
// remote reports it alongside unique violations under the same 409.
const fkViolationCode = "23503"

// conflictError distinguishes the two constraint violations the remote
// folds into 409: a foreign-key gap means the referenced book row is
// missing and can be healed, a unique violation means the row already
// exists.
func conflictError(body []byte) error {
	var remoteErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &remoteErr); err == nil && remoteErr.Code == fkViolationCode {
		return ErrMissingReference
	}
	return ErrDuplicate
}
