// Command stream-relay consumes raw order book logs from a Kafka
// datastream, decodes them, streams the results to WebSocket subscribers,
// and persists them with upsert semantics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/monad-developers/kuru-terminal/internal/adapter"
	ws "github.com/monad-developers/kuru-terminal/internal/delivery/websocket"
	"github.com/monad-developers/kuru-terminal/internal/orderbook"
	"github.com/monad-developers/kuru-terminal/internal/platform/kafka"
	"github.com/monad-developers/kuru-terminal/internal/platform/storage"
	"github.com/monad-developers/kuru-terminal/internal/processor"
	"github.com/monad-developers/kuru-terminal/internal/relay"
)

const shutdownGrace = 10 * time.Second

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", ""), "Path to YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("stream-relay failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Kafka.EnsureTopic {
		if err := ensureTopic(ctx, cfg); err != nil {
			return fmt.Errorf("ensure topic: %w", err)
		}
	}

	decoder, err := orderbook.NewDecoder()
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	var store processor.Store
	var health func(ctx context.Context) error
	if cfg.Database != "" {
		db, err := storage.New(ctx, storage.Config{ConnString: cfg.Database})
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
		HeartbeatInterval: cfg.WebSocket.HeartbeatInterval,
		Logger:            logger,
	})
	hub.Start()

	pipeline := processor.NewPipeline(processor.Config{
		Decoder:     decoder,
		Broadcaster: hub,
		Store:       store,
		Logger:      logger,
	})

	consumer, err := relay.NewConsumer(relay.Config{
		Brokers:    cfg.Kafka.Brokers,
		Topic:      cfg.Kafka.Topic,
		Group:      cfg.Kafka.Group,
		SASLUser:   cfg.Kafka.SASLUser,
		SASLPass:   cfg.Kafka.SASLPass,
		Normalizer: adapter.NewStreamNormalizer(),
		Pipeline:   pipeline,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if health != nil {
			if err := health(r.Context()); err != nil {
				logger.Error("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]any{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}

		consumed, malformed := consumer.Stats()
		json.NewEncoder(w).Encode(map[string]any{
			"status":            "ok",
			"clients":           hub.ClientCount(),
			"records_consumed":  consumed,
			"records_malformed": malformed,
		})
	})
	mux.Handle("GET /ws", ws.NewHandler(hub, cfg.WebSocket.AllowedOrigins, logger))

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("relay http listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := consumer.Run(ctx); err != nil {
			errCh <- fmt.Errorf("consumer: %w", err)
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
	consumer.Close()
	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Error("hub shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}

func ensureTopic(ctx context.Context, cfg *config) error {
	manager, err := kafka.NewTopicManager(cfg.Kafka.Brokers, cfg.Kafka.SASLUser, cfg.Kafka.SASLPass)
	if err != nil {
		return err
	}
	defer manager.Close()

	if err := manager.EnsureTopics(ctx, kafka.LogsTopicConfig(cfg.Kafka.Topic)); err != nil {
		return err
	}
	return manager.WaitForTopic(ctx, cfg.Kafka.Topic, cfg.Kafka.TopicWaitTimeout)
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

// getEnv returns environment variable value or default.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
