package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gleamverse/readsync/internal/domain"
	"github.com/gleamverse/readsync/internal/http/response"
)

// handleGetBookmarks returns the owner's bookmark set.
// GET /api/v1/owners/{ownerID}/bookmarks
func (s *Server) handleGetBookmarks(w http.ResponseWriter, r *http.Request) {
	set, err := s.bookmarks.Load(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, set, s.logger)
}

// handleAddBookmark bookmarks a book.
// POST /api/v1/owners/{ownerID}/bookmarks
func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID string `json:"book_id"`
		Status string `json:"status"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if req.BookID == "" {
		response.BadRequest(w, "book_id is required", s.logger)
		return
	}

	err := s.bookmarks.Add(r.Context(), chi.URLParam(r, "ownerID"), req.BookID, domain.BookmarkStatus(req.Status))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, map[string]string{"book_id": req.BookID}, s.logger)
}

// handleToggleBookmark flips a bookmark on or off.
// POST /api/v1/owners/{ownerID}/bookmarks/{bookID}/toggle
func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	// The body is optional; an empty toggle defaults to planning.
	if r.ContentLength > 0 {
		if err := json.UnmarshalRead(r.Body, &req); err != nil {
			response.BadRequest(w, "invalid request body", s.logger)
			return
		}
	}

	added, err := s.bookmarks.Toggle(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "bookID"), domain.BookmarkStatus(req.Status))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]bool{"bookmarked": added}, s.logger)
}

// handleUpdateBookmarkStatus moves a bookmark to a new status.
// PATCH /api/v1/owners/{ownerID}/bookmarks/{bookID}
func (s *Server) handleUpdateBookmarkStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	err := s.bookmarks.UpdateStatus(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "bookID"), domain.BookmarkStatus(req.Status))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]string{"status": req.Status}, s.logger)
}

// handleRemoveBookmark deletes a bookmark.
// DELETE /api/v1/owners/{ownerID}/bookmarks/{bookID}
func (s *Server) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	err := s.bookmarks.Remove(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "bookID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleClearBookmarks removes every bookmark for the owner.
// DELETE /api/v1/owners/{ownerID}/bookmarks
func (s *Server) handleClearBookmarks(w http.ResponseWriter, r *http.Request) {
	if err := s.bookmarks.ClearAll(r.Context(), chi.URLParam(r, "ownerID")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}
