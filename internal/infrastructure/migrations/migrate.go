package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	schema "github.com/fastygo/todo/assets/migrations"
)

// RunPostgres applies the embedded Postgres schema using a short-lived
// lib/pq connection.
func RunPostgres(dsn string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		return err
	}

	m, err := newMigrator(schema.PostgresDir, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return err
	}
	// closes sqlDB as well
	defer m.Close()

	if err := up(m); err != nil {
		return err
	}
	logger.Info("database migrations applied", zap.String("driver", "postgres"))
	return nil
}

// RunSQLite applies the embedded SQLite schema on an already open handle.
// The handle stays open: it is shared with the store.
func RunSQLite(sqlDB *sql.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return err
	}

	src, err := iofs.New(schema.FS, schema.SQLiteDir)
	if err != nil {
		return err
	}
	defer src.Close()

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := up(m); err != nil {
		return err
	}
	logger.Info("database migrations applied", zap.String("driver", "sqlite"))
	return nil
}

func newMigrator(dir, name string, driver database.Driver) (*migrate.Migrate, error) {
	src, err := iofs.New(schema.FS, dir)
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, name, driver)
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
