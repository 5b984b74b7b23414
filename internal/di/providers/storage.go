package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/catalog"
	"github.com/lecternapp/lectern-server/internal/config"
	"github.com/lecternapp/lectern-server/internal/logger"
	"github.com/lecternapp/lectern-server/internal/store"
)

// CatalogHandle wraps the course catalog with shutdown capability.
type CatalogHandle struct {
	*catalog.Catalog
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	return h.Close()
}

// ProvideCatalog provides the SQLite course catalog.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "catalog.db")
	cat, err := catalog.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Course catalog initialized", "path", dbPath)

	return &CatalogHandle{Catalog: cat}, nil
}

// StoreHandle wraps the progress store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the Badger progress store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "progress")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Progress store initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
