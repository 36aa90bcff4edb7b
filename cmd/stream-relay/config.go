package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/monad-developers/kuru-terminal/internal/platform/kafka"
)

// config holds the stream relay configuration.
type config struct {
	// Listen is the HTTP listen address for /ws and /healthz.
	Listen string `yaml:"listen"`

	// Kafka connection settings.
	Kafka kafkaConfig `yaml:"kafka"`

	// WebSocket fan-out settings.
	WebSocket wsConfig `yaml:"websocket"`

	// Database is a Postgres connection URL; empty keeps events in memory.
	Database string `yaml:"database"`

	// LogLevel: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

type kafkaConfig struct {
	// Brokers is a comma separated broker list.
	Brokers string `yaml:"brokers"`

	// Topic is the raw log topic.
	Topic string `yaml:"topic"`

	// Group is the consumer group id.
	Group string `yaml:"group"`

	// SASL/PLAIN credentials; empty username disables SASL.
	SASLUser string `yaml:"sasl_user"`
	SASLPass string `yaml:"sasl_pass"`

	// EnsureTopic creates the topic when missing. Local development only;
	// managed clusters reject topic creation.
	EnsureTopic bool `yaml:"ensure_topic"`

	// TopicWaitTimeout bounds the startup wait for the topic.
	TopicWaitTimeout time.Duration `yaml:"topic_wait_timeout"`
}

type wsConfig struct {
	// HeartbeatInterval is the ping cadence for subscriber health checks.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// AllowedOrigins restricts browser origins; empty allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// loadConfig loads configuration from an optional YAML file with
// environment overrides for the secrets.
func loadConfig(path string) (*config, error) {
	cfg := &config{
		Listen: ":8081",
		Kafka: kafkaConfig{
			Brokers:          "localhost:9092",
			Topic:            kafka.DefaultLogsTopic,
			Group:            "kuru-stream-relay",
			TopicWaitTimeout: 30 * time.Second,
		},
		WebSocket: wsConfig{
			HeartbeatInterval: 30 * time.Second,
		},
		LogLevel: "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = v
	}
	if v := os.Getenv("KAFKA_SASL_USER"); v != "" {
		cfg.Kafka.SASLUser = v
	}
	if v := os.Getenv("KAFKA_SASL_PASS"); v != "" {
		cfg.Kafka.SASLPass = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database = v
	}

	return cfg, nil
}
