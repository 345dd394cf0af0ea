package providers

import (
	"github.com/samber/do/v2"

	"github.com/gleamverse/readsync/internal/config"
	"github.com/gleamverse/readsync/internal/logger"
	"github.com/gleamverse/readsync/internal/service"
)

// HistoryServiceHandle wraps the history service with shutdown
// capability. Close drains the background cleanup workers and stops
// the reconcile timers.
type HistoryServiceHandle struct {
	*service.HistoryService
}

// Shutdown implements do.Shutdownable.
func (h *HistoryServiceHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideHistoryService provides the reading history service.
func ProvideHistoryService(i do.Injector) (*HistoryServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	remoteHandle := do.MustInvoke[*RemoteClientHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := service.NewHistoryService(storeHandle.Store, remoteHandle.Client, catalogHandle.Catalog, sseHandle.Manager, cfg.Sync, log.Logger)
	return &HistoryServiceHandle{HistoryService: svc}, nil
}

// ProvideBookmarkService provides the bookmark service, wired to the
// goal service so completed bookmarks roll up into goal progress.
func ProvideBookmarkService(i do.Injector) (*service.BookmarkService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	remoteHandle := do.MustInvoke[*RemoteClientHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	goals := do.MustInvoke[*service.GoalService](i)

	svc := service.NewBookmarkService(storeHandle.Store, remoteHandle.Client, catalogHandle.Catalog, sseHandle.Manager, log.Logger)
	svc.SetGoalReconciler(goals)
	return svc, nil
}

// ProvideGoalService provides the reading goal service.
func ProvideGoalService(i do.Injector) (*service.GoalService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	remoteHandle := do.MustInvoke[*RemoteClientHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	return service.NewGoalService(storeHandle.Store, remoteHandle.Client, sseHandle.Manager, log.Logger), nil
}

// ProvideStreakService provides the streak calculator.
func ProvideStreakService(i do.Injector) (*service.StreakService, error) {
	historyHandle := do.MustInvoke[*HistoryServiceHandle](i)
	return service.NewStreakService(historyHandle.HistoryService), nil
}
