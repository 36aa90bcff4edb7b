package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

type stubNormalizer struct{}

func (stubNormalizer) Normalize(payload []byte) ([]event.Log, error) {
	if string(payload) == "bad" {
		return nil, fmt.Errorf("unmarshal stream payload: bad record")
	}
	return []event.Log{{Identity: string(payload), Topics: []string{"0xt0"}, Data: "0x12"}}, nil
}

// flakyPipeline fails the first failures calls, then succeeds.
type flakyPipeline struct {
	failures int
	calls    int
	batches  [][]event.Log
}

func (p *flakyPipeline) Process(_ context.Context, logs []event.Log) (*event.Batch, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, errors.New("connection refused")
	}
	p.batches = append(p.batches, logs)
	return event.NewBatch(), nil
}

func newTestConsumer(p Pipeline) *Consumer {
	return &Consumer{
		cfg: Config{
			Normalizer: stubNormalizer{},
			Pipeline:   p,
		},
		logger:    slog.New(slog.DiscardHandler),
		retryBase: time.Millisecond,
		retryMax:  2 * time.Millisecond,
	}
}

func records(values ...string) []*kgo.Record {
	out := make([]*kgo.Record, len(values))
	for i, v := range values {
		out[i] = &kgo.Record{Value: []byte(v)}
	}
	return out
}

func TestProcessRecordsRetriesUntilStored(t *testing.T) {
	pipeline := &flakyPipeline{failures: 3}
	c := newTestConsumer(pipeline)

	ok := c.processRecords(context.Background(), records("0xaaa-0", "0xaaa-1"))
	if !ok {
		t.Fatal("processRecords() = false, want true once the batch is stored")
	}
	if pipeline.calls != 4 {
		t.Errorf("pipeline calls = %d, want 4 (three failures then success)", pipeline.calls)
	}
	if len(pipeline.batches) != 1 || len(pipeline.batches[0]) != 2 {
		t.Errorf("stored batches = %+v, want the full poll stored once", pipeline.batches)
	}

	consumed, malformed := c.Stats()
	if consumed != 2 || malformed != 0 {
		t.Errorf("Stats() = %d, %d, want 2, 0", consumed, malformed)
	}
}

func TestProcessRecordsUnstoredBatchBlocksCommit(t *testing.T) {
	// Persistence never recovers and shutdown arrives mid-retry: the batch
	// is not stored, so the caller must not commit its offsets.
	ctx, cancel := context.WithCancel(context.Background())
	pipeline := &flakyPipeline{failures: 1 << 30}
	c := newTestConsumer(pipeline)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	ok := c.processRecords(ctx, records("0xaaa-0"))
	if ok {
		t.Fatal("processRecords() = true, want false for an unstored batch")
	}
	if len(pipeline.batches) != 0 {
		t.Errorf("stored batches = %+v, want none", pipeline.batches)
	}
	if pipeline.calls < 1 {
		t.Errorf("pipeline calls = %d, want at least one attempt", pipeline.calls)
	}
}

func TestProcessRecordsSkipsMalformed(t *testing.T) {
	pipeline := &flakyPipeline{}
	c := newTestConsumer(pipeline)

	ok := c.processRecords(context.Background(), records("0xaaa-0", "bad"))
	if !ok {
		t.Fatal("processRecords() = false, want true")
	}
	if len(pipeline.batches) != 1 || len(pipeline.batches[0]) != 1 {
		t.Fatalf("stored batches = %+v, want one batch with the good record", pipeline.batches)
	}

	consumed, malformed := c.Stats()
	if consumed != 2 || malformed != 1 {
		t.Errorf("Stats() = %d, %d, want 2, 1", consumed, malformed)
	}
}

func TestProcessRecordsEmptyPoll(t *testing.T) {
	pipeline := &flakyPipeline{}
	c := newTestConsumer(pipeline)

	if ok := c.processRecords(context.Background(), nil); !ok {
		t.Fatal("processRecords() = false for empty poll, want true")
	}
	if pipeline.calls != 0 {
		t.Errorf("pipeline calls = %d, want 0 for empty poll", pipeline.calls)
	}
}
