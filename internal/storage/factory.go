package storage

import (
	"fmt"

	"github.com/ledgersim/mcp-ledger-sim/internal/logging"
	"github.com/ledgersim/mcp-ledger-sim/pkg/config"
)

// NewStore creates a store based on the configuration.
func NewStore(cfg *config.Settings, logger *logging.Logger) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	switch cfg.StorageType {
	case "sqlite":
		if cfg.StoragePath == "" {
			return nil, fmt.Errorf("storage path is required for SQLite store")
		}
		return NewSqliteStore(cfg.StoragePath, cfg.Sqlite.WALMode)
	case "memory", "":
		return NewMemoryStore(logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
