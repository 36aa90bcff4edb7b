package event

import (
	"encoding/json"
	"testing"
)

func TestBatchMarshalShape(t *testing.T) {
	batch := NewBatch()
	batch.Append(&Trade{
		Envelope: Envelope{ID: "0xabc-0"},
		OrderID:  "42",
		Price:    "1000",
	})

	data, err := json.Marshal(batch)
	if err != nil {
		t.Fatalf("marshal batch: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}

	// Every kind key must be present even when empty, and empty kinds must
	// be arrays rather than null.
	for _, kind := range Kinds() {
		raw, ok := decoded[string(kind)]
		if !ok {
			t.Errorf("kind %q missing from marshaled batch", kind)
			continue
		}
		if string(raw) == "null" {
			t.Errorf("kind %q marshaled as null, want array", kind)
		}
	}

	var trades []Trade
	if err := json.Unmarshal(decoded["trade"], &trades); err != nil {
		t.Fatalf("unmarshal trades: %v", err)
	}
	if len(trades) != 1 || trades[0].OrderID != "42" {
		t.Errorf("trades = %+v, want one trade with order id 42", trades)
	}
}

func TestBatchAppendAndTotal(t *testing.T) {
	batch := NewBatch()
	if batch.Total() != 0 {
		t.Fatalf("empty batch Total() = %d, want 0", batch.Total())
	}

	batch.Append(&Trade{Envelope: Envelope{ID: "a"}})
	batch.Append(&Trade{Envelope: Envelope{ID: "b"}})
	batch.Append(&OrderCreated{Envelope: Envelope{ID: "c"}})
	batch.Append(&OrdersCanceled{Envelope: Envelope{ID: "d"}, OrderIDs: []string{"1", "2"}})
	batch.Append(&Upgraded{Envelope: Envelope{ID: "e"}})

	if batch.Total() != 5 {
		t.Errorf("Total() = %d, want 5", batch.Total())
	}

	events := batch.Events()
	if len(events) != 5 {
		t.Fatalf("Events() returned %d events, want 5", len(events))
	}
	if events[0].Kind() != KindTrade || events[0].Common().ID != "a" {
		t.Errorf("Events()[0] = %s/%s, want trade/a", events[0].Kind(), events[0].Common().ID)
	}
	if events[4].Kind() != KindUpgraded {
		t.Errorf("Events()[4].Kind() = %s, want upgraded", events[4].Kind())
	}

	counts := batch.Counts()
	if counts[KindTrade] != 2 {
		t.Errorf("trade count = %d, want 2", counts[KindTrade])
	}
	if counts[KindOrderCreated] != 1 {
		t.Errorf("orderCreated count = %d, want 1", counts[KindOrderCreated])
	}
	if counts[KindInitialized] != 0 {
		t.Errorf("initialized count = %d, want 0", counts[KindInitialized])
	}
}
