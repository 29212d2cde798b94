// Package db opens the store, applies the schema and seeds reference data.
package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-rentals/internal/config"
)

const connectAttempts = 5

// Open connects to the configured driver. Postgres connections are retried
// to give the server time to start.
func Open(cfg config.DatabaseConfig, dev bool) (*gorm.DB, error) {
	level := logger.Warn
	if dev {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	if !cfg.IsPostgres() {
		slog.Info("opening sqlite database", "path", cfg.Path)
		db, err := gorm.Open(sqlite.Open(cfg.Path+"?_foreign_keys=on&_busy_timeout=5000"), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	}

	slog.Info("connecting to postgres", "host", cfg.Host, "port", cfg.Port, "dbname", cfg.DBName, "user", cfg.User)
	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
		if err == nil {
			break
		}
		slog.Warn("database connection failed, retrying", "attempt", i, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect postgres after %d attempts: %w", connectAttempts, err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}
