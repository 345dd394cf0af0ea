package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gleamverse/readsync/internal/http/response"
	"github.com/gleamverse/readsync/internal/service"
)

// handleListGoals returns all goals for the owner.
// GET /api/v1/owners/{ownerID}/goals
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.List(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, goals, s.logger)
}

// handleCreateGoal creates a reading goal.
// POST /api/v1/owners/{ownerID}/goals
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var input service.CreateGoalInput
	if err := json.UnmarshalRead(r.Body, &input); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	goal, err := s.goals.Create(r.Context(), chi.URLParam(r, "ownerID"), input)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, goal, s.logger)
}

// handleGetGoal returns a single goal.
// GET /api/v1/owners/{ownerID}/goals/{goalID}
func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.goals.Get(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "goalID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, goal, s.logger)
}

// handleUpdateGoal applies a partial update to a goal.
// PATCH /api/v1/owners/{ownerID}/goals/{goalID}
func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateGoalInput
	if err := json.UnmarshalRead(r.Body, &input); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	goal, err := s.goals.Update(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "goalID"), input)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, goal, s.logger)
}

// handleDeleteGoal removes a goal.
// DELETE /api/v1/owners/{ownerID}/goals/{goalID}
func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	err := s.goals.Delete(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "goalID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleAddGoalBook attaches a book to a goal's tracked set.
// POST /api/v1/owners/{ownerID}/goals/{goalID}/books
func (s *Server) handleAddGoalBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID string `json:"book_id"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if req.BookID == "" {
		response.BadRequest(w, "book_id is required", s.logger)
		return
	}

	goal, err := s.goals.AddBook(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "goalID"), req.BookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, goal, s.logger)
}

// handleRemoveGoalBook detaches a book from a goal's tracked set.
// DELETE /api/v1/owners/{ownerID}/goals/{goalID}/books/{bookID}
func (s *Server) handleRemoveGoalBook(w http.ResponseWriter, r *http.Request) {
	goal, err := s.goals.RemoveBook(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "goalID"), chi.URLParam(r, "bookID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, goal, s.logger)
}
