package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

// streamLog is one decoded-log row from the managed Kafka firehose. Topics
// arrive as four nullable columns rather than an array. LogIndex is a
// pointer so an absent field is distinguishable from a genuine index 0.
type streamLog struct {
	BlockHash        string  `json:"block_hash"`
	BlockNumber      uint64  `json:"block_number"`
	BlockTimestamp   uint64  `json:"block_timestamp"`
	TransactionHash  string  `json:"transaction_hash"`
	TransactionIndex int64   `json:"transaction_index"`
	LogIndex         *int64  `json:"log_index"`
	Address          string  `json:"address"`
	Data             string  `json:"data"`
	Topic0           *string `json:"topic0"`
	Topic1           *string `json:"topic1"`
	Topic2           *string `json:"topic2"`
	Topic3           *string `json:"topic3"`
}

// StreamNormalizer handles rows from the Kafka log stream. A payload is
// either a single JSON log row (one Kafka record) or a JSON array of rows.
type StreamNormalizer struct{}

// NewStreamNormalizer creates a normalizer for Kafka stream log rows.
func NewStreamNormalizer() *StreamNormalizer {
	return &StreamNormalizer{}
}

// Source returns the vendor identifier.
func (n *StreamNormalizer) Source() string {
	return "stream"
}

// Normalize parses one record or an array of records into canonical logs.
func (n *StreamNormalizer) Normalize(payload []byte) ([]event.Log, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, fmt.Errorf("empty stream payload")
	}

	var rows []streamLog
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(payload, &rows); err != nil {
			return nil, fmt.Errorf("unmarshal stream payload: %w", err)
		}
	} else {
		var row streamLog
		if err := json.Unmarshal(payload, &row); err != nil {
			return nil, fmt.Errorf("unmarshal stream payload: %w", err)
		}
		rows = []streamLog{row}
	}

	logs := make([]event.Log, 0, len(rows))
	for _, row := range rows {
		topics := collectTopics(row)
		if len(topics) == 0 || row.Data == "" {
			continue
		}

		logIndex := int64(-1)
		if row.LogIndex != nil {
			logIndex = *row.LogIndex
		}

		logs = append(logs, event.Log{
			Identity:        event.Identity(row.TransactionHash, logIndex, row.Address, ""),
			Address:         strings.ToLower(row.Address),
			BlockNumber:     row.BlockNumber,
			BlockTimestamp:  row.BlockTimestamp,
			TransactionHash: strings.ToLower(row.TransactionHash),
			Topics:          topics,
			Data:            row.Data,
		})
	}

	return logs, nil
}

// collectTopics assembles the topic columns into an ordered slice, stopping
// at the first null column.
func collectTopics(row streamLog) []string {
	var topics []string
	for _, t := range []*string{row.Topic0, row.Topic1, row.Topic2, row.Topic3} {
		if t == nil || *t == "" {
			break
		}
		topics = append(topics, strings.ToLower(*t))
	}
	return topics
}
