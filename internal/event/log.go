// Package event defines the canonical log record, the decoded Kuru order
// book event variants, and the per-kind batch structure the pipeline hands
// to its sinks.
package event

import (
	"fmt"
	"strings"
)

// Log is the canonical log record every vendor envelope reduces to before
// decoding. Topics and addresses are lowercase hex; Data keeps the vendor's
// 0x-prefixed hex encoding.
type Log struct {
	// Identity is the stable deduplication key for this log.
	Identity string

	// Address is the emitting contract address, lowercase hex.
	Address string

	// BlockNumber is the height the log was emitted at.
	BlockNumber uint64

	// BlockTimestamp is unix seconds; zero when the vendor does not supply it.
	BlockTimestamp uint64

	// TransactionHash identifies the transaction that produced the log.
	TransactionHash string

	// Topics holds the log topics, event signature hash first.
	Topics []string

	// Data is the ABI-encoded payload as a 0x-prefixed hex string.
	Data string
}

// Identity derives the deduplication key for a log. Transaction hash plus
// log index is preferred; when no log index is known the contract address
// stands in; a vendor-supplied id is the last resort.
func Identity(txHash string, logIndex int64, address, vendorID string) string {
	switch {
	case txHash != "" && logIndex >= 0:
		return fmt.Sprintf("%s-%d", strings.ToLower(txHash), logIndex)
	case txHash != "" && address != "":
		return fmt.Sprintf("%s-%s", strings.ToLower(txHash), strings.ToLower(address))
	default:
		return vendorID
	}
}

// Decodable reports whether the log carries enough material to attempt a
// decode. Logs without topics or without a data field are skipped upstream.
func (l Log) Decodable() bool {
	return len(l.Topics) > 0 && l.Data != ""
}
