package adapter

import "testing"

func TestStreamNormalizeSingleRecord(t *testing.T) {
	payload := []byte(`{
		"block_number": 99,
		"block_timestamp": 1700000500,
		"transaction_hash": "0xAAA",
		"log_index": 7,
		"address": "0xBOOK",
		"data": "0x1234",
		"topic0": "0xTOPIC0",
		"topic1": "0xTOPIC1",
		"topic2": null,
		"topic3": null
	}`)

	logs, err := NewStreamNormalizer().Normalize(payload)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}

	log := logs[0]
	if log.Identity != "0xaaa-7" {
		t.Errorf("Identity = %q, want %q", log.Identity, "0xaaa-7")
	}
	if len(log.Topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(log.Topics))
	}
	if log.Topics[0] != "0xtopic0" || log.Topics[1] != "0xtopic1" {
		t.Errorf("Topics = %v, want lowercase topic columns in order", log.Topics)
	}
}

func TestStreamNormalizeArray(t *testing.T) {
	payload := []byte(`[
		{
			"block_number": 1,
			"transaction_hash": "0xaaa",
			"log_index": 0,
			"address": "0xbook",
			"data": "0x12",
			"topic0": "0xt0"
		},
		{
			"block_number": 2,
			"transaction_hash": "0xbbb",
			"log_index": 0,
			"address": "0xbook",
			"data": "0x34",
			"topic0": null
		}
	]`)

	logs, err := NewStreamNormalizer().Normalize(payload)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	// The topicless row is dropped.
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	if logs[0].Identity != "0xaaa-0" {
		t.Errorf("Identity = %q, want %q", logs[0].Identity, "0xaaa-0")
	}
}

func TestStreamNormalizeTopicGap(t *testing.T) {
	// A null column ends the topic list even when later columns are set.
	payload := []byte(`{
		"block_number": 1,
		"transaction_hash": "0xaaa",
		"log_index": 0,
		"address": "0xbook",
		"data": "0x12",
		"topic0": "0xt0",
		"topic1": null,
		"topic2": "0xt2"
	}`)

	logs, err := NewStreamNormalizer().Normalize(payload)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	if len(logs[0].Topics) != 1 || logs[0].Topics[0] != "0xt0" {
		t.Errorf("Topics = %v, want just topic0", logs[0].Topics)
	}
}

func TestStreamNormalizeMissingLogIndex(t *testing.T) {
	// No log_index column: identity falls back to tx hash + address
	// instead of claiming index 0.
	payload := []byte(`{
		"block_number": 1,
		"transaction_hash": "0xaaa",
		"address": "0xbook",
		"data": "0x12",
		"topic0": "0xt0"
	}`)

	logs, err := NewStreamNormalizer().Normalize(payload)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	if logs[0].Identity != "0xaaa-0xbook" {
		t.Errorf("Identity = %q, want address fallback %q", logs[0].Identity, "0xaaa-0xbook")
	}
}

func TestStreamNormalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"not json", "<html>"},
		{"bad array", `[{"block_number": "not a number"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStreamNormalizer().Normalize([]byte(tt.payload)); err == nil {
				t.Error("Normalize() = nil error, want error")
			}
		})
	}
}
