package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/cine-boletos/internal/adapter/storage"
	"github.com/rl1809/cine-boletos/internal/config"
	"github.com/rl1809/cine-boletos/internal/port"
)

// OpenDatabase connects to MySQL and, unless disabled, creates the tables.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, *storage.MySQLAdapter, error) {
	db, err := storage.OpenMySQL(ctx, storage.MySQLOptions{
		DSN:             cfg.MySQLDSN,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		Database:        cfg.DBName,
		TLS:             cfg.DBTLS,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
		ConnectAttempts: cfg.DBConnectTries,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to mysql")

	adapter := storage.NewMySQLAdapter(db)
	if cfg.DBAutoMigrate {
		if err := adapter.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, adapter, nil
}

// OpenCache connects to Redis. Without REDIS_ADDR, or when Redis does not
// answer, it falls back to NopCache so the service still runs; stock never
// depends on Redis.
func OpenCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.Cache, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("redis disabled, catalog cache and idempotency keys off")
		return storage.NopCache{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, running without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		rdb.Close()
		return storage.NopCache{}, func() {}
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	return storage.NewRedisAdapter(rdb, cfg.CatalogTTL, cfg.IdempotencyTTL), func() {
		if err := rdb.Close(); err != nil {
			logger.Error("error closing redis connection", zap.Error(err))
		}
	}
}
