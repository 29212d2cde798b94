package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_PATH", "MIGRATIONS", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.Database.IsPostgres())
	assert.Equal(t, "auto", cfg.App.Migrations)
	assert.Equal(t, slog.LevelInfo, cfg.App.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_NAME", "n")
	t.Setenv("DB_HOST", "h")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV", "no")

	cfg := Load()
	assert.True(t, cfg.Database.IsPostgres())
	assert.Equal(t, "postgres://u:p@h:6543/n?sslmode=require", cfg.Database.URL())
	assert.Equal(t, "host=h port=6543 user=u password=p dbname=n sslmode=require", cfg.Database.DSN())
	assert.Equal(t, slog.LevelDebug, cfg.App.LogLevel)
	assert.False(t, cfg.App.Dev)
}

func TestParseLevelFallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
}
