// Package catalog holds the library's book metadata and a full-text
// search index over it.
//
// The catalog ships embedded so the engine works with zero setup. An
// optional on-disk catalog file overrides the embedded one and is
// watched for changes, so editing it updates the running engine.
package catalog

import (
	_ "embed"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/gleamverse/readsync/internal/domain"
	apperrors "github.com/gleamverse/readsync/internal/errors"
)

//go:embed books.json
var embeddedBooks []byte

// ErrBookNotFound is returned when a book ID has no catalog entry.
var ErrBookNotFound = apperrors.ErrNotFound.WithMessage("book not found in catalog")

// Catalog is a thread-safe view of the library's books.
type Catalog struct {
	mu     sync.RWMutex
	books  map[string]*domain.Book
	index  *searchIndex
	path   string
	logger *slog.Logger
}

// New loads the catalog from path, or from the embedded data when path
// is empty, and builds the search index.
func New(path string, logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		path:   path,
		logger: logger,
	}

	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog source and rebuilds the search index.
// Readers see either the old snapshot or the new one, never a partial
// load.
func (c *Catalog) Reload() error {
	data := embeddedBooks
	source := "embedded"
	if c.path != "" {
		fileData, err := os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("read catalog file: %w", err)
		}
		data = fileData
		source = c.path
	}

	var books []*domain.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	byID := make(map[string]*domain.Book, len(books))
	for _, b := range books {
		if b.ID == "" {
			return fmt.Errorf("catalog entry %q has no id", b.Title)
		}
		if b.TotalPages <= 0 {
			return fmt.Errorf("catalog entry %q has invalid page count %d", b.ID, b.TotalPages)
		}
		byID[b.ID] = b
	}

	index, err := newSearchIndex(books)
	if err != nil {
		return fmt.Errorf("build search index: %w", err)
	}

	c.mu.Lock()
	old := c.index
	c.books = byID
	c.index = index
	c.mu.Unlock()

	if old != nil {
		old.close()
	}

	c.logger.Info("catalog loaded", "source", source, "books", len(byID))
	return nil
}

// Get returns the book with the given ID.
func (c *Catalog) Get(id string) (*domain.Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	book, ok := c.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	return book, nil
}

// All returns every book, sorted by title.
func (c *Catalog) All() []*domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()

	books := make([]*domain.Book, 0, len(c.books))
	for _, b := range c.books {
		books = append(books, b)
	}
	slices.SortFunc(books, func(a, b *domain.Book) int {
		return strings.Compare(a.Title, b.Title)
	})
	return books
}

// Len returns the number of books in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.books)
}

// Search runs a full-text query over titles, authors, and genres,
// returning up to limit books ranked by relevance.
func (c *Catalog) Search(query string, limit int) ([]*domain.Book, error) {
	c.mu.RLock()
	index := c.index
	c.mu.RUnlock()

	ids, err := index.search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	books := make([]*domain.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := c.books[id]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}

// Close releases the search index.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != nil {
		c.index.close()
		c.index = nil
	}
	return nil
}
