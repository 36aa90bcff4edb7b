// Package relay consumes raw order book logs from a Kafka datastream and
// feeds them through the decode pipeline.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

const (
	retryBaseDelay = time.Second
	retryMaxDelay  = 30 * time.Second
)

// Normalizer converts one raw record payload into canonical logs.
type Normalizer interface {
	Normalize(payload []byte) ([]event.Log, error)
}

// Pipeline processes one batch of canonical logs.
type Pipeline interface {
	Process(ctx context.Context, logs []event.Log) (*event.Batch, error)
}

// Config holds consumer configuration.
type Config struct {
	// Brokers is a comma separated broker list.
	Brokers string

	// Topic is the raw log topic to consume.
	Topic string

	// Group is the consumer group id.
	Group string

	// SASLUser and SASLPass enable SASL/PLAIN when the user is non-empty,
	// as required by managed datastream clusters.
	SASLUser string
	SASLPass string

	Normalizer Normalizer
	Pipeline   Pipeline
	Logger     *slog.Logger
}

// Consumer is a Kafka consumer group member that drains the raw log topic.
// A poll's offsets are committed only once its batch has been persisted; a
// persistence failure is retried with backoff rather than skipped, so no
// commit ever advances past records that were not stored. The upsert store
// makes redelivery after a crash or rebalance harmless.
type Consumer struct {
	cfg    Config
	client *kgo.Client
	logger *slog.Logger

	// Retry backoff bounds; overridable in tests.
	retryBase time.Duration
	retryMax  time.Duration

	mu               sync.Mutex
	recordsConsumed  uint64
	recordsMalformed uint64
}

// NewConsumer connects a consumer group client.
func NewConsumer(cfg Config) (*Consumer, error) {
	if cfg.Normalizer == nil || cfg.Pipeline == nil {
		return nil, errors.New("relay: normalizer and pipeline are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	brokerList := strings.Split(cfg.Brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokerList...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		kgo.DisableAutoCommit(),
	}
	if cfg.SASLUser != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.SASLUser,
			Pass: cfg.SASLPass,
		}.AsMechanism()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	logger := cfg.Logger.With("component", "relay-consumer")
	logger.Info("connected to kafka",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"group", cfg.Group,
		"sasl", cfg.SASLUser != "",
	)

	return &Consumer{
		cfg:       cfg,
		client:    client,
		logger:    logger,
		retryBase: retryBaseDelay,
		retryMax:  retryMaxDelay,
	}, nil
}

// Run polls until the context is canceled. Each poll becomes one pipeline
// batch so duplicate suppression sees records the way the stream delivered
// them.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.logStats()

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			fatal := false
			for _, e := range errs {
				if errors.Is(e.Err, context.Canceled) {
					fatal = true
					continue
				}
				c.logger.Error("fetch error",
					"topic", e.Topic,
					"partition", e.Partition,
					"error", e.Err,
				)
			}
			if fatal {
				return nil
			}
			continue
		}

		var records []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			records = append(records, record)
		})

		if !c.processRecords(ctx, records) {
			// Shut down mid-retry with the batch unstored. Offsets stay
			// uncommitted so the records come back on the next session.
			return nil
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				c.logger.Error("commit error", "error", err)
			}
		}
	}
}

// processRecords normalizes one poll's records and pushes them through the
// pipeline, retrying persistence with backoff until it succeeds. It reports
// whether the batch was stored; offsets must not be committed otherwise.
func (c *Consumer) processRecords(ctx context.Context, records []*kgo.Record) bool {
	var logs []event.Log
	var malformed uint64

	for _, record := range records {
		normalized, err := c.cfg.Normalizer.Normalize(record.Value)
		if err != nil {
			malformed++
			c.logger.Error("failed to normalize record",
				"offset", record.Offset,
				"partition", record.Partition,
				"error", err,
			)
			continue
		}
		logs = append(logs, normalized...)
	}

	c.mu.Lock()
	c.recordsConsumed += uint64(len(records))
	c.recordsMalformed += malformed
	c.mu.Unlock()

	if len(logs) == 0 {
		return true
	}

	delay := c.retryBase
	for {
		if _, err := c.cfg.Pipeline.Process(ctx, logs); err == nil {
			return true
		} else {
			c.logger.Error("failed to persist batch",
				"logs", len(logs),
				"retry_in", delay,
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.retryMax {
			delay = c.retryMax
		}
	}
}

// Close shuts the client down, which also unblocks a running poll. Polled
// but uncommitted offsets are deliberately left alone; they belong to
// batches that were never stored.
func (c *Consumer) Close() {
	c.client.Close()
}

func (c *Consumer) logStats() {
	consumed, malformed := c.Stats()
	c.logger.Info("consumer stopped",
		"records_consumed", consumed,
		"records_malformed", malformed,
	)
}

// Stats returns consumption counters.
func (c *Consumer) Stats() (consumed, malformed uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordsConsumed, c.recordsMalformed
}
