package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/internal/config"
	"github.com/diewo77/go-rentals/internal/db"
	"github.com/diewo77/go-rentals/internal/services"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg.App)

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// setupLogger installs a text handler in development and JSON otherwise.
func setupLogger(app config.AppConfig) {
	opts := &slog.HandlerOptions{Level: app.LogLevel}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if app.Dev {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg *config.Config) error {
	conn, err := db.Open(cfg.Database, cfg.App.Dev)
	if err != nil {
		return err
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(conn, cfg); err != nil {
			return err
		}
		slog.Info("migrations completed")
		return nil
	}
	if *seedOnlyFlag {
		if err := db.Seed(context.Background(), conn, cfg.App); err != nil {
			return err
		}
		slog.Info("seeding completed")
		return nil
	}

	if err := db.Migrate(conn, cfg); err != nil {
		return err
	}
	if err := db.Seed(context.Background(), conn, cfg.App); err != nil {
		return err
	}

	settings := services.NewSettingsCache(conn)
	if _, err := settings.Reload(context.Background()); err != nil {
		return err
	}
	app := NewApp(conn, settings, time.Now)
	auth.SetUserVerifier(app.users.Exists)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(app),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
		slog.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
