package storage

import (
	"context"
	"testing"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

func TestMemoryStoreUpsertIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	batch := event.NewBatch()
	batch.Append(&event.Trade{
		Envelope: event.Envelope{ID: "0xaaa-0"},
		Price:    "900",
	})

	if err := store.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}
	if err := store.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("UpsertBatch() replay error: %v", err)
	}

	if got := store.Count(event.KindTrade); got != 1 {
		t.Errorf("Count(trade) = %d, want 1 after replay", got)
	}
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := event.NewBatch()
	first.Append(&event.Trade{Envelope: event.Envelope{ID: "0xaaa-0"}, Price: "900"})
	if err := store.UpsertBatch(ctx, first); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	second := event.NewBatch()
	second.Append(&event.Trade{Envelope: event.Envelope{ID: "0xaaa-0"}, Price: "1000"})
	if err := store.UpsertBatch(ctx, second); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	stored, ok := store.Get(event.KindTrade, "0xaaa-0")
	if !ok {
		t.Fatal("Get() = missing, want stored trade")
	}
	trade, ok := stored.(*event.Trade)
	if !ok {
		t.Fatalf("Get() = %T, want *event.Trade", stored)
	}
	if trade.Price != "1000" {
		t.Errorf("Price = %q, want overwrite to %q", trade.Price, "1000")
	}
}

func TestMemoryStoreAllKinds(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	batch := event.NewBatch()
	batch.Append(&event.Trade{Envelope: event.Envelope{ID: "t"}})
	batch.Append(&event.OrderCreated{Envelope: event.Envelope{ID: "oc"}})
	batch.Append(&event.OrdersCanceled{Envelope: event.Envelope{ID: "ocx"}})
	batch.Append(&event.Initialized{Envelope: event.Envelope{ID: "i"}})
	batch.Append(&event.OwnershipHandoverCanceled{Envelope: event.Envelope{ID: "ohc"}})
	batch.Append(&event.OwnershipHandoverRequested{Envelope: event.Envelope{ID: "ohr"}})
	batch.Append(&event.OwnershipTransferred{Envelope: event.Envelope{ID: "ot"}})
	batch.Append(&event.Upgraded{Envelope: event.Envelope{ID: "u"}})

	if err := store.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("UpsertBatch() error: %v", err)
	}

	for _, kind := range event.Kinds() {
		if got := store.Count(kind); got != 1 {
			t.Errorf("Count(%s) = %d, want 1", kind, got)
		}
	}
}
