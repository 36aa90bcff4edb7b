// Command webhook-server receives order book log deliveries from indexing
// vendor webhooks, decodes them, streams the results to WebSocket
// subscribers, and persists them with upsert semantics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ws "github.com/monad-developers/kuru-terminal/internal/delivery/websocket"
	"github.com/monad-developers/kuru-terminal/internal/orderbook"
	"github.com/monad-developers/kuru-terminal/internal/processor"
	"github.com/monad-developers/kuru-terminal/internal/platform/storage"
)

const shutdownGrace = 10 * time.Second

func main() {
	listenAddr := flag.String("listen", getEnv("LISTEN_ADDR", ":8080"), "HTTP listen address")
	databaseURL := flag.String("db", getEnv("DATABASE_URL", ""), "Postgres connection URL (empty = in-memory store)")
	heartbeat := flag.Duration("heartbeat", getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second), "WebSocket heartbeat interval")
	allowedOrigins := flag.String("allowed-origins", getEnv("ALLOWED_ORIGINS", ""), "Comma separated WebSocket origin allow-list (empty = allow all)")
	logLevel := flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	if err := run(logger, *listenAddr, *databaseURL, *heartbeat, splitList(*allowedOrigins)); err != nil {
		logger.Error("webhook-server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, listenAddr, databaseURL string, heartbeat time.Duration, allowedOrigins []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	decoder, err := orderbook.NewDecoder()
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	var store processor.Store
	var health func(ctx context.Context) error
	if databaseURL != "" {
		db, err := storage.New(ctx, storage.Config{ConnString: databaseURL})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		store = storage.NewEventStore(db, logger)
		health = db.Health
		logger.Info("using postgres event store")
	} else {
		store = storage.NewMemoryStore()
		logger.Warn("no database configured, events are kept in memory only")
	}

	hub := ws.NewHub(ws.HubConfig{
		HeartbeatInterval: heartbeat,
		Logger:            logger,
	})
	hub.Start()

	pipeline := processor.NewPipeline(processor.Config{
		Decoder:     decoder,
		Broadcaster: hub,
		Store:       store,
		Logger:      logger,
	})

	srv := newServer(pipeline, hub, allowedOrigins, health, logger)
	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("webhook server listening", "addr", listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
		cancel()
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Error("hub shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}

func newLogger(levelName string) *slog.Logger {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
