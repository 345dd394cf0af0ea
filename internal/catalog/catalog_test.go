package catalog_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gleamverse/readsync/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New("", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEmbeddedCatalogLoads(t *testing.T) {
	c := newEmbeddedCatalog(t)
	assert.Greater(t, c.Len(), 0)
}

func TestGet(t *testing.T) {
	c := newEmbeddedCatalog(t)

	book, err := c.Get("frankenstein")
	require.NoError(t, err)
	assert.Equal(t, "Frankenstein", book.Title)
	assert.Equal(t, "Mary Shelley", book.Author)
	assert.Equal(t, 280, book.TotalPages)
}

func TestGetUnknownBook(t *testing.T) {
	c := newEmbeddedCatalog(t)

	_, err := c.Get("no-such-book")
	assert.ErrorIs(t, err, catalog.ErrBookNotFound)
}

func TestAllSortedByTitle(t *testing.T) {
	c := newEmbeddedCatalog(t)

	books := c.All()
	require.NotEmpty(t, books)
	for i := 1; i < len(books); i++ {
		assert.LessOrEqual(t, books[i-1].Title, books[i].Title)
	}
}

func TestSearchByTitle(t *testing.T) {
	c := newEmbeddedCatalog(t)

	books, err := c.Search("frankenstein", 10)
	require.NoError(t, err)
	require.NotEmpty(t, books)
	assert.Equal(t, "frankenstein", books[0].ID)
}

func TestSearchByAuthor(t *testing.T) {
	c := newEmbeddedCatalog(t)

	books, err := c.Search("wells", 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	assert.Contains(t, ids, "the-time-machine")
	assert.Contains(t, ids, "the-war-of-the-worlds")
}

func TestSearchEmptyQuery(t *testing.T) {
	c := newEmbeddedCatalog(t)

	books, err := c.Search("   ", 10)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestSearchPrefix(t *testing.T) {
	c := newEmbeddedCatalog(t)

	books, err := c.Search("drac", 10)
	require.NoError(t, err)
	require.NotEmpty(t, books)
	assert.Equal(t, "dracula", books[0].ID)
}

func TestCatalogFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.json")
	data := `[{"id":"tiny-book","title":"Tiny Book","author":"A. Writer","pdf_path":"books/tiny.pdf","total_pages":12}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := catalog.New(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 1, c.Len())
	book, err := c.Get("tiny-book")
	require.NoError(t, err)
	assert.Equal(t, "Tiny Book", book.Title)
}

func TestReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"b1","title":"One","total_pages":10}]`), 0o644))

	c, err := catalog.New(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, 1, c.Len())

	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"b1","title":"One","total_pages":10},
		{"id":"b2","title":"Two","total_pages":20}
	]`), 0o644))
	require.NoError(t, c.Reload())

	assert.Equal(t, 2, c.Len())
	_, err = c.Get("b2")
	assert.NoError(t, err)
}

func TestReloadRejectsInvalidEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"b1","title":"One","total_pages":10}]`), 0o644))

	c, err := catalog.New(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer c.Close()

	// Zero page count is rejected and the old snapshot stays live.
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"b1","title":"One","total_pages":0}]`), 0o644))
	assert.Error(t, c.Reload())
	assert.Equal(t, 1, c.Len())
}
