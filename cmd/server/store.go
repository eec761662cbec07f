package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/todo/internal/config"
	"github.com/fastygo/todo/internal/infrastructure/migrations"
	pgInfra "github.com/fastygo/todo/internal/infrastructure/postgres"
	sqliteInfra "github.com/fastygo/todo/internal/infrastructure/sqlite"
	"github.com/fastygo/todo/internal/services/lifecycle"
	"github.com/fastygo/todo/repository"
	boltRepo "github.com/fastygo/todo/repository/bolt"
	pgRepo "github.com/fastygo/todo/repository/postgres"
	sqliteRepo "github.com/fastygo/todo/repository/sqlite"
)

// openStore connects the engine named by DB_DRIVER, applies migrations when
// enabled and registers the engine's closer with manager.
func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (repository.TaskRepository, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqliteInfra.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		manager.Register("sqlite", lifecycle.Closer(func() error { return sqliteInfra.Close(db) }))

		if cfg.Migrations.Enabled {
			sqlDB, err := db.DB()
			if err != nil {
				return nil, err
			}
			if err := migrations.RunSQLite(sqlDB, logger); err != nil {
				return nil, fmt.Errorf("sqlite migrations: %w", err)
			}
		}
		return sqliteRepo.NewTaskRepository(db), nil

	case config.DriverPostgres:
		if cfg.Migrations.Enabled {
			if err := migrations.RunPostgres(cfg.Database.URL, logger); err != nil {
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		manager.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		return pgRepo.NewTaskRepository(pool), nil

	case config.DriverBolt:
		store, err := boltRepo.Open(cfg.Database.BoltPath)
		if err != nil {
			return nil, err
		}
		manager.Register("bolt", lifecycle.Closer(store.Close))
		logger.Info("opened bolt store", zap.String("path", cfg.Database.BoltPath))
		return store, nil
	}
	return nil, fmt.Errorf("unsupported driver %q", cfg.Database.Driver)
}
