package app

import (
	"fmt"
	"log/slog"

	"github.com/skillcoder/workload-reconciler/internal/adapters/outbound/memory"
	"github.com/skillcoder/workload-reconciler/internal/adapters/outbound/redis"
	"github.com/skillcoder/workload-reconciler/internal/config"
)

// NewStore opens the store backend selected by cfg.
func NewStore(logger *slog.Logger, cfg *config.Config) (Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		return redis.New(logger, redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)), nil
	case config.StoreMemory:
		logger.Warn("memory store selected, specs do not survive a restart")

		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}
