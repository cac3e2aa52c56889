// Package factory builds the configured storage.Store.
package factory

import (
	"fmt"

	"github.com/joypaint/joypaint/internal/config"
	"github.com/joypaint/joypaint/internal/database"
	"github.com/joypaint/joypaint/internal/storage"
	"github.com/joypaint/joypaint/internal/storage/gormstore"
	"github.com/joypaint/joypaint/internal/storage/memory"
	"github.com/rs/zerolog"
)

// NewStore creates a store based on configuration. The returned store still
// needs Init.
func NewStore(cfg config.StorageConfig, log zerolog.Logger) (storage.Store, error) {
	switch cfg.Type {
	case "postgres", "sqlite":
		mgr := database.NewManager(log)
		if err := mgr.Connect(cfg); err != nil {
			return nil, fmt.Errorf("failed to connect %s store: %w", cfg.Type, err)
		}
		return gormstore.New(mgr, log), nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
