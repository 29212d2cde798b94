package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/config"
	"github.com/diewo77/go-rentals/internal/models"
)

// Migration modes.
const (
	MigrateAuto = "auto"
	MigrateSQL  = "sql"
	MigrateOff  = "off"
)

// requiredTables must exist once the schema is applied.
var requiredTables = []string{"users", "parameters", "locations", "invoices", "payments"}

// Migrate applies the schema. "auto" runs gorm AutoMigrate over every model;
// "sql" runs the versioned files in cfg.App.MigrationsPath with
// golang-migrate and is only supported on postgres.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	switch cfg.App.Migrations {
	case MigrateOff:
		slog.Info("schema migrations disabled")
		return nil
	case MigrateSQL:
		if !cfg.Database.IsPostgres() {
			return fmt.Errorf("sql migrations require postgres, got driver %q", cfg.Database.Driver)
		}
		if err := runSQLMigrations(cfg.App.MigrationsPath, cfg.Database.URL()); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	default:
		if err := AutoMigrate(db); err != nil {
			return err
		}
	}
	for _, table := range requiredTables {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// AutoMigrate creates or alters the tables of every model.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	slog.Info("schema migrated", "mode", MigrateAuto, "models", len(models.All()))
	return nil
}

func runSQLMigrations(path, url string) error {
	m, err := migrate.New("file://"+path, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	v, dirty, _ := m.Version()
	slog.Info("schema migrated", "mode", MigrateSQL, "version", v, "dirty", dirty)
	return nil
}
