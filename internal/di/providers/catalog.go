package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/gleamverse/readsync/internal/catalog"
	"github.com/gleamverse/readsync/internal/config"
	"github.com/gleamverse/readsync/internal/logger"
)

// CatalogHandle wraps the catalog with its watcher context for
// lifecycle management.
type CatalogHandle struct {
	*catalog.Catalog
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	h.cancel()
	return h.Catalog.Close()
}

// ProvideCatalog provides the book catalog. A configured path is
// watched for changes; otherwise the embedded catalog is used.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cat, err := catalog.New(cfg.Catalog.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	// Watch in background; it returns immediately for the embedded
	// catalog.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := cat.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("catalog watcher stopped", "error", err)
		}
	}()

	if cfg.Catalog.Path == "" {
		log.Info("Catalog loaded", "source", "embedded", "books", cat.Len())
	} else {
		log.Info("Catalog loaded", "source", cfg.Catalog.Path, "books", cat.Len())
	}

	return &CatalogHandle{
		Catalog: cat,
		cancel:  cancel,
	}, nil
}
