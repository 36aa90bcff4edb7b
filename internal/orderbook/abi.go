// Package orderbook decodes Kuru order book contract events. The event
// definitions are embedded from the contract ABI; topic hashes and decode
// plumbing are derived from it at construction time so the known-event
// table exists before any log is accepted.
package orderbook

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const orderBookABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint40", "name": "orderId", "type": "uint40"},
      {"indexed": false, "internalType": "address", "name": "makerAddress", "type": "address"},
      {"indexed": false, "internalType": "bool", "name": "isBuy", "type": "bool"},
      {"indexed": false, "internalType": "uint256", "name": "price", "type": "uint256"},
      {"indexed": false, "internalType": "uint96", "name": "updatedSize", "type": "uint96"},
      {"indexed": false, "internalType": "address", "name": "takerAddress", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "txOrigin", "type": "address"},
      {"indexed": false, "internalType": "uint96", "name": "filledSize", "type": "uint96"}
    ],
    "name": "Trade",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint40", "name": "orderId", "type": "uint40"},
      {"indexed": false, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": false, "internalType": "uint96", "name": "size", "type": "uint96"},
      {"indexed": false, "internalType": "uint32", "name": "price", "type": "uint32"},
      {"indexed": false, "internalType": "bool", "name": "isBuy", "type": "bool"}
    ],
    "name": "OrderCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint40[]", "name": "orderId", "type": "uint40[]"},
      {"indexed": false, "internalType": "address", "name": "owner", "type": "address"}
    ],
    "name": "OrdersCanceled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint64", "name": "version", "type": "uint64"}
    ],
    "name": "Initialized",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "pendingOwner", "type": "address"}
    ],
    "name": "OwnershipHandoverCanceled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "pendingOwner", "type": "address"}
    ],
    "name": "OwnershipHandoverRequested",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "oldOwner", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "newOwner", "type": "address"}
    ],
    "name": "OwnershipTransferred",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "implementation", "type": "address"}
    ],
    "name": "Upgraded",
    "type": "event"
  }
]`

var (
	abiOnce   sync.Once
	parsedABI abi.ABI
	abiErr    error
)

// OrderBookABI parses the embedded contract ABI once.
func OrderBookABI() (abi.ABI, error) {
	abiOnce.Do(func() {
		parsedABI, abiErr = abi.JSON(strings.NewReader(orderBookABIJSON))
	})
	if abiErr != nil {
		return abi.ABI{}, fmt.Errorf("parse order book abi: %w", abiErr)
	}
	return parsedABI, nil
}
