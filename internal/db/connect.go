package db

import (
	"context"
	"fmt"
	"time"

	"mine_economy/internal/config"
	"mine_economy/internal/logger"
	"mine_economy/internal/repository"
	"mine_economy/internal/repository/postgres"
	"mine_economy/internal/repository/sqlite"

	"github.com/jackc/pgx/v5/pgxpool"
)

const connectTimeout = 10 * time.Second

// Connect opens a pgx pool and pings it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected")
	return pool, nil
}

// OpenStore returns the ledger store selected by cfg.StorageDriver. Postgres
// schemas are migrated on open like the SQLite ones.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("postgres store ready", "migrations", applied)
		return postgres.New(pool), nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite store ready", "path", cfg.SQLitePath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
