package processor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

// Decoder maps a canonical log to a decoded event. (nil, nil) means the
// signature hash is not a known order book event; an error means the log
// matched a known event but its payload would not decode.
type Decoder interface {
	Decode(log event.Log) (event.Decoded, error)
}

// Broadcaster pushes a batch to live subscribers. Delivery is best effort;
// implementations never report per-subscriber failures to the caller.
type Broadcaster interface {
	Broadcast(batch *event.Batch)
}

// Store persists a batch with upsert semantics. Kinds are attempted
// independently; the first error is returned after all kinds are tried.
type Store interface {
	UpsertBatch(ctx context.Context, batch *event.Batch) error
}

// Pipeline runs one ingestion batch through dedupe, decode, and the two
// sinks. Broadcast happens first and its outcome never affects persistence;
// the call's error reflects persistence only.
type Pipeline struct {
	decoder     Decoder
	broadcaster Broadcaster
	store       Store
	logger      *slog.Logger

	mu                sync.Mutex
	logsIngested      uint64
	duplicatesRemoved uint64
	logsUndecodable   uint64
	logsUnrecognized  uint64
	eventsDecoded     uint64
}

// Config holds pipeline dependencies.
type Config struct {
	Decoder     Decoder
	Broadcaster Broadcaster
	Store       Store
	Logger      *slog.Logger
}

// NewPipeline wires a pipeline. Decoder and Store are required; a nil
// Broadcaster disables fan-out (useful in tests and backfills).
func NewPipeline(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Pipeline{
		decoder:     cfg.Decoder,
		broadcaster: cfg.Broadcaster,
		store:       cfg.Store,
		logger:      cfg.Logger.With("component", "pipeline"),
	}
}

// Process ingests one batch of canonical logs. The returned batch is always
// usable, even alongside a persistence error: by then it has already been
// broadcast to live subscribers.
func (p *Pipeline) Process(ctx context.Context, logs []event.Log) (*event.Batch, error) {
	deduped, removed := Deduplicate(logs)
	if removed > 0 {
		p.logger.Info("removed duplicate logs",
			"received", len(logs),
			"duplicates", removed,
		)
	}

	batch, undecodable, unrecognized := p.route(deduped)

	p.mu.Lock()
	p.logsIngested += uint64(len(logs))
	p.duplicatesRemoved += uint64(removed)
	p.logsUndecodable += uint64(undecodable)
	p.logsUnrecognized += uint64(unrecognized)
	p.eventsDecoded += uint64(batch.Total())
	p.mu.Unlock()

	p.logger.Debug("routed batch",
		"logs", len(deduped),
		"events", batch.Total(),
		"undecodable", undecodable,
		"unrecognized", unrecognized,
	)

	if p.broadcaster != nil {
		p.broadcaster.Broadcast(batch)
	}

	if err := p.store.UpsertBatch(ctx, batch); err != nil {
		return batch, err
	}

	return batch, nil
}

// route decodes each log and groups the results by kind, preserving
// relative order. Bad logs are counted and skipped, never fatal.
func (p *Pipeline) route(logs []event.Log) (batch *event.Batch, undecodable, unrecognized int) {
	batch = event.NewBatch()

	for _, log := range logs {
		if !log.Decodable() {
			undecodable++
			continue
		}

		decoded, err := p.decoder.Decode(log)
		if err != nil {
			undecodable++
			p.logger.Error("failed to decode log",
				"identity", log.Identity,
				"tx_hash", log.TransactionHash,
				"error", err,
			)
			continue
		}
		if decoded == nil {
			unrecognized++
			continue
		}

		batch.Append(decoded)
	}

	return batch, undecodable, unrecognized
}

// Stats reports cumulative pipeline counters.
func (p *Pipeline) Stats() PipelineStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PipelineStats{
		LogsIngested:      p.logsIngested,
		DuplicatesRemoved: p.duplicatesRemoved,
		LogsUndecodable:   p.logsUndecodable,
		LogsUnrecognized:  p.logsUnrecognized,
		EventsDecoded:     p.eventsDecoded,
	}
}

// PipelineStats contains cumulative ingestion counters.
type PipelineStats struct {
	LogsIngested      uint64 `json:"logs_ingested"`
	DuplicatesRemoved uint64 `json:"duplicates_removed"`
	LogsUndecodable   uint64 `json:"logs_undecodable"`
	LogsUnrecognized  uint64 `json:"logs_unrecognized"`
	EventsDecoded     uint64 `json:"events_decoded"`
}
