// Package processor implements the decode/deduplicate/fan-out pipeline for
// canonical order book logs.
package processor

import (
	"github.com/monad-developers/kuru-terminal/internal/event"
)

// Deduplicate collapses logs sharing an identity to one record each and
// returns the number of duplicates removed. The winner is the last
// occurrence in batch order: upstream platforms stream reorg corrections
// chronologically within a batch, so the highest index carries the
// authoritative state. Relative order of the survivors is preserved.
//
// Block timestamps are deliberately not consulted; they can be absent or
// equal across a reorg, where delivery order still disambiguates.
func Deduplicate(logs []event.Log) ([]event.Log, int) {
	if len(logs) <= 1 {
		return logs, 0
	}

	seen := make(map[string]struct{}, len(logs))
	kept := make([]event.Log, 0, len(logs))

	// Walk backwards so the first sighting of an identity is its final state.
	for i := len(logs) - 1; i >= 0; i-- {
		if _, dup := seen[logs[i].Identity]; dup {
			continue
		}
		seen[logs[i].Identity] = struct{}{}
		kept = append(kept, logs[i])
	}

	// Restore original delivery order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return kept, len(logs) - len(kept)
}
