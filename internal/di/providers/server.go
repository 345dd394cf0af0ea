package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/gleamverse/readsync/internal/api"
	"github.com/gleamverse/readsync/internal/config"
	"github.com/gleamverse/readsync/internal/logger"
	"github.com/gleamverse/readsync/internal/service"
	"github.com/gleamverse/readsync/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideSSEHandler provides the SSE streaming handler.
func ProvideSSEHandler(i do.Injector) (*sse.Handler, error) {
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	return sse.NewHandler(sseHandle.Manager, log.Logger), nil
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	historyHandle := do.MustInvoke[*HistoryServiceHandle](i)
	bookmarks := do.MustInvoke[*service.BookmarkService](i)
	goals := do.MustInvoke[*service.GoalService](i)
	streaks := do.MustInvoke[*service.StreakService](i)
	sseHandler := do.MustInvoke[*sse.Handler](i)

	server := api.NewServer(
		catalogHandle.Catalog,
		historyHandle.HistoryService,
		bookmarks,
		goals,
		streaks,
		sseHandler,
		cfg.Server.WebOrigin,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
