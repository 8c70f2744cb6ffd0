// Package backend opens the configured store implementation.
package backend

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tubearchive/tubearchive-server/internal/config"
	"github.com/tubearchive/tubearchive-server/internal/store"
	"github.com/tubearchive/tubearchive-server/internal/store/badgerdb"
	"github.com/tubearchive/tubearchive-server/internal/store/sqlite"
)

// Path returns where the named backend keeps its data under dataPath.
func Path(name, dataPath string) (string, error) {
	switch name {
	case config.BackendSQLite, "":
		return filepath.Join(dataPath, "tubearchive.db"), nil
	case config.BackendBadger:
		return filepath.Join(dataPath, "db"), nil
	default:
		return "", fmt.Errorf("unknown store backend %q", name)
	}
}

// Open opens the named backend under dataPath. An empty name selects SQLite.
func Open(name, dataPath string, logger *slog.Logger) (store.Store, error) {
	path, err := Path(name, dataPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	if name == config.BackendBadger {
		return badgerdb.Open(path, logger)
	}
	return sqlite.Open(path, logger)
}
