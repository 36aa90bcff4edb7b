package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

// goldskyLog is one row of a Goldsky Mirror webhook delivery. Topics arrive
// as a single comma-joined string; numeric fields are plain JSON numbers.
// LogIndex is a pointer so an absent field is distinguishable from a genuine
// index 0.
type goldskyLog struct {
	ID               string `json:"id"`
	BlockNumber      uint64 `json:"block_number"`
	BlockHash        string `json:"block_hash"`
	TransactionHash  string `json:"transaction_hash"`
	TransactionIndex int64  `json:"transaction_index"`
	LogIndex         *int64 `json:"log_index"`
	Address          string `json:"address"`
	Data             string `json:"data"`
	Topics           string `json:"topics"`
	BlockTimestamp   uint64 `json:"block_timestamp"`
}

// GoldskyNormalizer handles Goldsky Mirror webhook payloads: a flat JSON
// array of log rows.
type GoldskyNormalizer struct{}

// NewGoldskyNormalizer creates a normalizer for Goldsky Mirror deliveries.
func NewGoldskyNormalizer() *GoldskyNormalizer {
	return &GoldskyNormalizer{}
}

// Source returns the vendor identifier.
func (n *GoldskyNormalizer) Source() string {
	return "goldsky"
}

// Normalize flattens a Mirror delivery into canonical logs. Rows without
// topics or data are dropped; Mirror streams them for every log of the
// watched contract, decodable or not.
func (n *GoldskyNormalizer) Normalize(payload []byte) ([]event.Log, error) {
	var rows []goldskyLog
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal goldsky payload: %w", err)
	}

	logs := make([]event.Log, 0, len(rows))
	for _, row := range rows {
		if row.Topics == "" || row.Data == "" {
			continue
		}

		topics := strings.Split(row.Topics, ",")
		for i := range topics {
			topics[i] = strings.ToLower(strings.TrimSpace(topics[i]))
		}

		logIndex := int64(-1)
		if row.LogIndex != nil {
			logIndex = *row.LogIndex
		}

		logs = append(logs, event.Log{
			Identity:        event.Identity(row.TransactionHash, logIndex, row.Address, row.ID),
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
