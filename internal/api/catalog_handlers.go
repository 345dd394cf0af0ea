package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gleamverse/readsync/internal/http/response"
)

// handleListBooks returns the whole catalog sorted by title.
// GET /api/v1/books
func (s *Server) handleListBooks(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.catalog.All(), s.logger)
}

// handleSearchBooks runs a full-text search over the catalog.
// GET /api/v1/books/search?q=...&limit=...
func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, "query parameter q is required", s.logger)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			response.BadRequest(w, "limit must be between 1 and 100", s.logger)
			return
		}
		limit = parsed
	}

	books, err := s.catalog.Search(query, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, books, s.logger)
}

// handleGetBook returns one catalog entry.
// GET /api/v1/books/{bookID}
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.catalog.Get(chi.URLParam(r, "bookID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, book, s.logger)
}
