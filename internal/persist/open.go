package persist

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/diogo/chatui/internal/config"
)

// Open builds the slot selected by cfg.Backend and wraps it in an Adapter
func Open(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*Adapter, error) {
	key := cfg.Key
	if key == "" {
		key = config.DefaultStorageKey
	}

	var slot Slot
	switch cfg.Backend {
	case config.BackendMemory:
		slot = NewMemorySlot()
	case config.BackendFile, "":
		dir, err := config.StoragePath(config.StorageConfig{Backend: config.BackendFile, Path: cfg.Path})
		if err != nil {
			return nil, err
		}
		slot = NewFileSlot(dir)
	case config.BackendSQLite:
		path, err := config.StoragePath(cfg)
		if err != nil {
			return nil, err
		}
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		slot = s
	case config.BackendRedis:
		s, err := OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		slot = s
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	log.Debug().Str("backend", slot.Name()).Str("key", key).Msg("storage opened")
	return NewAdapter(slot, key, WithAdapterLogger(log)), nil
}
