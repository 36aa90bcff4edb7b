package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

// quicknodeLog is one eth_getLogs-shaped entry from a QuickNode Streams
// delivery. Quantities are 0x-prefixed hex strings.
type quicknodeLog struct {
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	BlockNumber      string   `json:"blockNumber"`
	TransactionHash  string   `json:"transactionHash"`
	TransactionIndex string   `json:"transactionIndex"`
	BlockHash        string   `json:"blockHash"`
	LogIndex         string   `json:"logIndex"`
	Removed          bool     `json:"removed"`
}

// quicknodeEnvelope is the batched Streams shape: block -> tx -> log.
type quicknodeEnvelope struct {
	Data [][][]quicknodeLog `json:"data"`
}

// QuickNodeNormalizer handles QuickNode Streams webhook payloads. Streams
// batches logs three levels deep (block, transaction, log); older filter
// configurations deliver a flat array. Both are accepted.
type QuickNodeNormalizer struct{}

// NewQuickNodeNormalizer creates a normalizer for QuickNode Streams deliveries.
func NewQuickNodeNormalizer() *QuickNodeNormalizer {
	return &QuickNodeNormalizer{}
}

// Source returns the vendor identifier.
func (n *QuickNodeNormalizer) Source() string {
	return "quicknode"
}

// Normalize flattens a Streams delivery into canonical logs.
func (n *QuickNodeNormalizer) Normalize(payload []byte) ([]event.Log, error) {
	rows, err := flattenQuickNode(payload)
	if err != nil {
		return nil, err
	}

	logs := make([]event.Log, 0, len(rows))
	for _, row := range rows {
		if len(row.Topics) == 0 || row.Data == "" {
			continue
		}

		blockNumber, err := parseHexQuantity(row.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("parse block number %q: %w", row.BlockNumber, err)
		}

		logIndex := int64(-1)
		if row.LogIndex != "" {
			idx, err := parseHexQuantity(row.LogIndex)
			if err != nil {
				return nil, fmt.Errorf("parse log index %q: %w", row.LogIndex, err)
			}
			logIndex = int64(idx)
		}

		topics := make([]string, len(row.Topics))
		for i, t := range row.Topics {
			topics[i] = strings.ToLower(t)
		}

		logs = append(logs, event.Log{
			Identity:        event.Identity(row.TransactionHash, logIndex, row.Address, ""),
			Address:         strings.ToLower(row.Address),
			BlockNumber:     blockNumber,
			TransactionHash: strings.ToLower(row.TransactionHash),
			Topics:          topics,
			Data:            row.Data,
		})
	}

	return logs, nil
}

// flattenQuickNode accepts either the nested envelope or a flat log array.
func flattenQuickNode(payload []byte) ([]quicknodeLog, error) {
	var envelope quicknodeEnvelope
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Data != nil {
		var rows []quicknodeLog
		for _, block := range envelope.Data {
			for _, tx := range block {
				rows = append(rows, tx...)
			}
		}
		return rows, nil
	}

	var rows []quicknodeLog
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal quicknode payload: %w", err)
	}
	return rows, nil
}

// parseHexQuantity decodes a 0x-prefixed hex quantity into a uint64.
func parseHexQuantity(s string) (uint64, error) {
	v, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}
