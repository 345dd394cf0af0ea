package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/gleamverse/readsync/internal/config"
	"github.com/gleamverse/readsync/internal/logger"
	"github.com/gleamverse/readsync/internal/remote"
	"github.com/gleamverse/readsync/internal/sse"
	"github.com/gleamverse/readsync/internal/store"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the cache store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the local cache store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := store.New(cfg.Cache.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Cache initialized", "path", cfg.Cache.Path)

	return &StoreHandle{Store: db}, nil
}

// RemoteClientHandle wraps the remote store client with shutdown capability.
type RemoteClientHandle struct {
	remote.Client
}

// Shutdown implements do.Shutdownable.
func (h *RemoteClientHandle) Shutdown() error {
	return h.Close()
}

// ProvideRemoteClient provides the remote store client. Without a
// configured base URL the engine runs from the local cache only.
func ProvideRemoteClient(i do.Injector) (*RemoteClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Remote.BaseURL == "" {
		log.Info("No remote store configured, running local-only")
		return &RemoteClientHandle{Client: remote.NewNoop()}, nil
	}

	client, err := remote.NewREST(cfg.Remote, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Remote store client ready", "base_url", cfg.Remote.BaseURL)

	return &RemoteClientHandle{Client: client}, nil
}
