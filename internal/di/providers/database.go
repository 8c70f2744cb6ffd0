package providers

import (
	"github.com/samber/do/v2"

	"github.com/tubearchive/tubearchive-server/internal/config"
	"github.com/tubearchive/tubearchive-server/internal/logger"
	"github.com/tubearchive/tubearchive-server/internal/store"
	"github.com/tubearchive/tubearchive-server/internal/store/backend"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured record store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := backend.Open(cfg.Storage.Backend, cfg.Storage.DataPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "data_path", cfg.Storage.DataPath)

	return &StoreHandle{Store: st}, nil
}
