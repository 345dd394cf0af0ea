package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gleamverse/readsync/internal/http/response"
)

// handleGetHistory returns the owner's reading history, most recent
// first.
// GET /api/v1/owners/{ownerID}/history
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.Load(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, records, s.logger)
}

// handleContinueReading returns recent books joined with their catalog
// entries.
// GET /api/v1/owners/{ownerID}/history/continue
func (s *Server) handleContinueReading(w http.ResponseWriter, r *http.Request) {
	items, err := s.history.ContinueReading(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, items, s.logger)
}

// handleGetProgress returns the owner's progress in one book.
// GET /api/v1/owners/{ownerID}/history/{bookID}
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.history.GetProgress(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "bookID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, progress, s.logger)
}

// handleUpdateProgress records a page position.
// PUT /api/v1/owners/{ownerID}/history/{bookID}
func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	record, err := s.history.UpdateProgress(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "bookID"), req.Page)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, record, s.logger)
}

// handleRemoveHistory deletes a book from history.
// DELETE /api/v1/owners/{ownerID}/history/{bookID}
func (s *Server) handleRemoveHistory(w http.ResponseWriter, r *http.Request) {
	err := s.history.Remove(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "bookID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleGetStreak returns the owner's current reading streak.
// GET /api/v1/owners/{ownerID}/streak
func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := s.streaks.Current(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, streak, s.logger)
}

// handleSyncNotify schedules a debounced reconciliation for an owner.
// Remote-side changes (another device, a webhook relay) land here.
// POST /api/v1/sync/notify
func (s *Server) handleSyncNotify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if req.OwnerID == "" {
		response.BadRequest(w, "owner_id is required", s.logger)
		return
	}

	s.history.NotifyRemoteChange(req.OwnerID)
	response.JSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"}, s.logger)
}
