package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/config"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/httpserver"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/ingest"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/logging"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/metrics"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/store"
)

// main boots the service: config → DB → schema → HTTP server.
func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	// The service refuses to start without WEBHOOK_SECRET.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(os.Stdout, level)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	// Connect to durable storage (Postgres or SQLite, chosen by DATABASE_URL).
	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st = store.NewCachedStore(st, rdb, cfg.Redis.StatsTTL, logger)
		logger.Info("stats cache enabled", "redis_addr", cfg.Redis.Addr, "ttl", cfg.Redis.StatsTTL.String())
	}
	defer st.Close()

	// Ensure the messages table exists so a fresh database is enough.
	schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = st.EnsureSchema(schemaCtx)
	cancel()
	if err != nil {
		return err
	}

	rec := metrics.NewRegistry(ingest.Outcomes()...)
	router := httpserver.NewRouter(cfg, st, rec, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
