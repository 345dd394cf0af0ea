package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gleamverse/readsync/internal/http/response"
	"github.com/gleamverse/readsync/internal/reader"
)

func sessionKey(ownerID, bookID string) string {
	return ownerID + ":" + bookID
}

// session returns the live reader session for the owner and book,
// opening one at the last-read page when none exists yet.
func (s *Server) session(ctx context.Context, ownerID, bookID string, mode reader.PageMode) (*reader.Session, error) {
	key := sessionKey(ownerID, bookID)

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if sess, ok := s.sessions[key]; ok {
		return sess, nil
	}

	book, err := s.catalog.Get(bookID)
	if err != nil {
		return nil, err
	}

	sess, err := reader.NewSession(ctx, s.history, s.bookmarks, ownerID, book, mode, s.logger)
	if err != nil {
		return nil, err
	}
	s.sessions[key] = sess
	return sess, nil
}

// handleReaderTurn performs a page turn and returns the landing page
// plus the preload plan.
// POST /api/v1/owners/{ownerID}/reader/{bookID}/turn
func (s *Server) handleReaderTurn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Mode   string `json:"mode"`
		Page   int    `json:"page"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	ownerID := chi.URLParam(r, "ownerID")
	bookID := chi.URLParam(r, "bookID")

	sess, err := s.session(r.Context(), ownerID, bookID, reader.PageMode(req.Mode))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	// A mode in the request switches the session's layout before the
	// turn is applied.
	if req.Mode != "" && reader.PageMode(req.Mode) != sess.Mode() {
		if _, err := sess.SetMode(r.Context(), reader.PageMode(req.Mode)); err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
	}

	var result *reader.TurnResult
	switch req.Action {
	case "", "to":
		page := req.Page
		if page == 0 {
			page = sess.Page()
		}
		result, err = sess.TurnTo(r.Context(), page)
	case "next":
		result, err = sess.Next(r.Context())
	case "prev":
		result, err = sess.Prev(r.Context())
	case "next_chapter":
		result, err = sess.NextChapter(r.Context())
	case "prev_chapter":
		result, err = sess.PrevChapter(r.Context())
	default:
		response.BadRequest(w, "unknown turn action", s.logger)
		return
	}
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, result, s.logger)
}

// handleReaderRender records how long the client took to render a page.
// POST /api/v1/owners/{ownerID}/reader/{bookID}/render
func (s *Server) handleReaderRender(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page   int   `json:"page"`
		Millis int64 `json:"millis"`
	}
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}
	if req.Millis < 0 {
		response.BadRequest(w, "millis must not be negative", s.logger)
		return
	}

	ownerID := chi.URLParam(r, "ownerID")
	bookID := chi.URLParam(r, "bookID")

	s.sessionMu.Lock()
	sess, ok := s.sessions[sessionKey(ownerID, bookID)]
	s.sessionMu.Unlock()
	if !ok {
		response.NotFound(w, "no open reader session", s.logger)
		return
	}

	sess.ObserveRenderLatency(req.Page, time.Duration(req.Millis)*time.Millisecond)
	response.Success(w, map[string]string{"status": "recorded"}, s.logger)
}

// handleReaderClose drops the reader session. Progress is already
// persisted on every turn, so closing only frees the session state.
// DELETE /api/v1/owners/{ownerID}/reader/{bookID}
func (s *Server) handleReaderClose(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(chi.URLParam(r, "ownerID"), chi.URLParam(r, "bookID"))

	s.sessionMu.Lock()
	delete(s.sessions, key)
	s.sessionMu.Unlock()

	response.NoContent(w)
}
