package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/monad-developers/kuru-terminal/internal/adapter"
	ws "github.com/monad-developers/kuru-terminal/internal/delivery/websocket"
	"github.com/monad-developers/kuru-terminal/internal/event"
	"github.com/monad-developers/kuru-terminal/internal/processor"
)

// maxBodyBytes caps webhook payloads. Vendor deliveries batch at most a few
// hundred logs; anything larger is not a legitimate delivery.
const maxBodyBytes = 10 << 20

// server routes webhook deliveries and WebSocket upgrades.
type server struct {
	mux      *http.ServeMux
	registry *adapter.Registry
	pipeline *processor.Pipeline
	hub      *ws.Hub
	health   func(ctx context.Context) error
	logger   *slog.Logger
}

// newServer builds the router. health may be nil when no backing database
// is configured.
func newServer(pipeline *processor.Pipeline, hub *ws.Hub, allowedOrigins []string, health func(ctx context.Context) error, logger *slog.Logger) *server {
	s := &server{
		mux:      http.NewServeMux(),
		registry: adapter.NewRegistry(),
		pipeline: pipeline,
		hub:      hub,
		health:   health,
		logger:   logger.With("component", "http"),
	}

	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("POST /webhook/goldsky", s.handleWebhook("goldsky"))
	s.mux.HandleFunc("POST /webhook/quicknode", s.handleWebhook("quicknode"))
	s.mux.Handle("GET /ws", ws.NewHandler(hub, allowedOrigins, logger))

	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Kuru order book event relay. POST /webhook/{goldsky,quicknode}, GET /ws for the live stream.")
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pipeline": s.pipeline.Stats(),
		"hub":      s.hub.Stats(),
	})
}

// handleWebhook builds the delivery handler for one vendor. The response
// code reflects parsing and persistence only; by the time persistence runs
// the batch has already been broadcast to subscribers.
func (s *server) handleWebhook(source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.logger.Warn("failed to read webhook body", "source", source, "error", err)
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		logs, err := s.registry.Normalize(source, body)
		if err != nil {
			s.logger.Warn("unparseable webhook payload", "source", source, "error", err)
			writeError(w, http.StatusBadRequest, "unparseable payload")
			return
		}

		batch, err := s.pipeline.Process(r.Context(), logs)
		if err != nil {
			s.logger.Error("failed to persist webhook batch",
				"source", source,
				"logs", len(logs),
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "failed to persist events")
			return
		}

		s.logBatch(source, len(logs), batch)
		writeJSON(w, http.StatusOK, batch)
	}
}

func (s *server) logBatch(source string, logs int, batch *event.Batch) {
	attrs := []any{"source", source, "logs", logs, "events", batch.Total()}
	for kind, count := range batch.Counts() {
		if count > 0 {
			attrs = append(attrs, string(kind), count)
		}
	}
	s.logger.Info("processed webhook delivery", attrs...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
