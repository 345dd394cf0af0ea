// Package di provides dependency injection configuration for the readsync engine.
package di

import (
	"github.com/samber/do/v2"

	"github.com/gleamverse/readsync/internal/config"
	"github.com/gleamverse/readsync/internal/di/providers"
	"github.com/gleamverse/readsync/internal/logger"
	"github.com/gleamverse/readsync/internal/service"
	"github.com/gleamverse/readsync/internal/sse"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Cache and remote store
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideRemoteClient)

	// Catalog
	do.Provide(injector, providers.ProvideCatalog)

	// Business services
	do.Provide(injector, providers.ProvideHistoryService)
	do.Provide(injector, providers.ProvideBookmarkService)
	do.Provide(injector, providers.ProvideGoalService)
	do.Provide(injector, providers.ProvideStreakService)

	// Server
	do.Provide(injector, providers.ProvideSSEHandler)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap triggers lazy initialization of all core services and
// returns once everything is wired.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.RemoteClientHandle](injector)
	_ = do.MustInvoke[*providers.CatalogHandle](injector)

	_ = do.MustInvoke[*providers.HistoryServiceHandle](injector)
	_ = do.MustInvoke[*service.BookmarkService](injector)
	_ = do.MustInvoke[*service.GoalService](injector)
	_ = do.MustInvoke[*service.StreakService](injector)

	_ = do.MustInvoke[*sse.Handler](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
