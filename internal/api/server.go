// Package api provides the HTTP surface of the readsync engine.
package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gleamverse/readsync/internal/catalog"
	"github.com/gleamverse/readsync/internal/http/response"
	"github.com/gleamverse/readsync/internal/reader"
	"github.com/gleamverse/readsync/internal/service"
	"github.com/gleamverse/readsync/internal/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	catalog    *catalog.Catalog
	history    *service.HistoryService
	bookmarks  *service.BookmarkService
	goals      *service.GoalService
	streaks    *service.StreakService
	sseHandler *sse.Handler
	router     *chi.Mux
	logger     *slog.Logger

	// Reader sessions, keyed by "ownerID:bookID". Created lazily on
	// the first page turn and dropped when the reader closes.
	sessionMu sync.Mutex
	sessions  map[string]*reader.Session
}

// NewServer creates a new HTTP server with all routes configured.
// webOrigin is the CORS origin allowed for the web reader.
func NewServer(cat *catalog.Catalog, history *service.HistoryService, bookmarks *service.BookmarkService, goals *service.GoalService, streaks *service.StreakService, sseHandler *sse.Handler, webOrigin string, logger *slog.Logger) *Server {
	s := &Server{
		catalog:    cat,
		history:    history,
		bookmarks:  bookmarks,
		goals:      goals,
		streaks:    streaks,
		sseHandler: sseHandler,
		router:     chi.NewRouter(),
		logger:     logger,
		sessions:   make(map[string]*reader.Session),
	}

	s.setupMiddleware(webOrigin)
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(webOrigin string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	if webOrigin == "" {
		webOrigin = "*"
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{webOrigin},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Catalog (read-only).
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/search", s.handleSearchBooks)
			r.Get("/{bookID}", s.handleGetBook)
		})

		// Per-owner reading state.
		r.Route("/owners/{ownerID}", func(r chi.Router) {
			r.Route("/history", func(r chi.Router) {
				r.Get("/", s.handleGetHistory)
				r.Get("/continue", s.handleContinueReading)
				r.Get("/{bookID}", s.handleGetProgress)
				r.Put("/{bookID}", s.handleUpdateProgress)
				r.Delete("/{bookID}", s.handleRemoveHistory)
			})

			r.Get("/streak", s.handleGetStreak)

			r.Route("/bookmarks", func(r chi.Router) {
				r.Get("/", s.handleGetBookmarks)
				r.Post("/", s.handleAddBookmark)
				r.Delete("/", s.handleClearBookmarks)
				r.Post("/{bookID}/toggle", s.handleToggleBookmark)
				r.Patch("/{bookID}", s.handleUpdateBookmarkStatus)
				r.Delete("/{bookID}", s.handleRemoveBookmark)
			})

			r.Route("/goals", func(r chi.Router) {
				r.Get("/", s.handleListGoals)
				r.Post("/", s.handleCreateGoal)
				r.Get("/{goalID}", s.handleGetGoal)
				r.Patch("/{goalID}", s.handleUpdateGoal)
				r.Delete("/{goalID}", s.handleDeleteGoal)
				r.Post("/{goalID}/books", s.handleAddGoalBook)
				r.Delete("/{goalID}/books/{bookID}", s.handleRemoveGoalBook)
			})

			r.Route("/reader/{bookID}", func(r chi.Router) {
				r.Post("/turn", s.handleReaderTurn)
				r.Post("/render", s.handleReaderRender)
				r.Delete("/", s.handleReaderClose)
			})
		})

		// Sync endpoints.
		r.Route("/sync", func(r chi.Router) {
			r.Post("/notify", s.handleSyncNotify)
			r.Get("/stream", s.sseHandler.ServeHTTP)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
