package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/pos-inventory/internal/config"
	"github.com/rl1809/pos-inventory/internal/port"
)

// Backend is the inventory store chosen by STORE_DRIVER along with the
// idempotency guard that lives next to it.
type Backend struct {
	Repo  port.InventoryRepository
	Guard port.IdempotencyGuard

	closers []func() error
}

func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Open connects to the configured store and migrates SQL schemas. The
// idempotency guard is Redis backed when the store is Redis and in process
// otherwise.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Info("using in-memory inventory store")
		return &Backend{
			Repo:  NewMemoryAdapter(),
			Guard: NewMemoryIdempotency(cfg.IdempotencyTTL),
		}, nil

	case config.DriverMySQL:
		db, err := openSQL(ctx, "mysql", cfg.MySQLDSN, cfg)
		if err != nil {
			return nil, err
		}
		adapter := NewMySQLAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to mysql")
		return &Backend{
			Repo:    adapter,
			Guard:   NewMemoryIdempotency(cfg.IdempotencyTTL),
			closers: []func() error{db.Close},
		}, nil

	case config.DriverPostgres:
		db, err := openSQL(ctx, "postgres", cfg.PostgresDSN, cfg)
		if err != nil {
			return nil, err
		}
		adapter := NewPostgresAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to postgres")
		return &Backend{
			Repo:    adapter,
			Guard:   NewMemoryIdempotency(cfg.IdempotencyTTL),
			closers: []func() error{db.Close},
		}, nil

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: cfg.RedisPoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		adapter := NewRedisAdapter(rdb, cfg.IdempotencyTTL)
		return &Backend{
			Repo:    adapter,
			Guard:   adapter,
			closers: []func() error{rdb.Close},
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openSQL(ctx context.Context, driver, dsn string, cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return db, nil
}
