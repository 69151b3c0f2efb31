package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront-cart/internal/config"
	"github.com/utafrali/storefront-cart/internal/repository"
	filerepo "github.com/utafrali/storefront-cart/internal/repository/file"
	"github.com/utafrali/storefront-cart/internal/repository/memory"
	pgrepo "github.com/utafrali/storefront-cart/internal/repository/postgres"
	redisrepo "github.com/utafrali/storefront-cart/internal/repository/redis"
	"github.com/utafrali/storefront-cart/pkg/database"
)

// openStorage connects the configured cart storage backend. The returned
// close function releases any connection it opened and is never nil.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.CartStorage, func(), error) {
	noop := func() {}

	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("using in-memory cart storage, the cart will not survive a restart")
		return memory.NewCartStorage(), noop, nil

	case config.StorageFile:
		storage, err := filerepo.NewCartStorage(cfg.StorageFile)
		if err != nil {
			return nil, noop, fmt.Errorf("open cart file: %w", err)
		}
		logger.Info("using file cart storage", slog.String("path", cfg.StorageFile))
		return storage, noop, nil

	case config.StorageRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, noop, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				logger.Error("redis close error", slog.String("error", err.Error()))
			}
		}
		return redisrepo.NewCartStorage(rdb, cfg.StorageKey, cfg.CartTTLDuration()), closeFn, nil

	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		storage := pgrepo.NewCartStorage(pool, cfg.StorageKey)
		if err := storage.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ensure cart schema: %w", err)
		}
		return storage, pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown cart storage %q", cfg.Storage)
	}
}
