package orderbook

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

// buildFunc assembles one event variant from the unpacked field values.
type buildFunc func(env event.Envelope, vals map[string]interface{}) (event.Decoded, error)

// Decoder maps log signature hashes to event kinds and decodes their
// fields. All lookups are built once at construction; a kind whose event is
// missing from the ABI fails construction, so a half-configured decoder
// never accepts logs.
type Decoder struct {
	abi      abi.ABI
	kinds    map[string]event.Kind
	builders map[event.Kind]buildFunc
}

// NewDecoder derives the signature-hash table from the embedded ABI.
func NewDecoder() (*Decoder, error) {
	ab, err := OrderBookABI()
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		abi:   ab,
		kinds: make(map[string]event.Kind),
		builders: map[event.Kind]buildFunc{
			event.KindTrade:                      buildTrade,
			event.KindOrderCreated:               buildOrderCreated,
			event.KindOrdersCanceled:             buildOrdersCanceled,
			event.KindInitialized:                buildInitialized,
			event.KindOwnershipHandoverCanceled:  buildOwnershipHandoverCanceled,
			event.KindOwnershipHandoverRequested: buildOwnershipHandoverRequested,
			event.KindOwnershipTransferred:       buildOwnershipTransferred,
			event.KindUpgraded:                   buildUpgraded,
		},
	}

	for _, kind := range event.Kinds() {
		ev, ok := ab.Events[kind.EventName()]
		if !ok {
			return nil, fmt.Errorf("event %s not found in order book abi", kind.EventName())
		}
		d.kinds[strings.ToLower(ev.ID.Hex())] = kind
	}

	return d, nil
}

// KindFor returns the event kind for a signature hash, if known.
func (d *Decoder) KindFor(topic0 string) (event.Kind, bool) {
	kind, ok := d.kinds[strings.ToLower(topic0)]
	return kind, ok
}

// Decode maps a canonical log to a decoded event. An unrecognized signature
// hash yields (nil, nil); a recognized event with an undecodable payload
// yields an error the caller is expected to log and drop.
func (d *Decoder) Decode(log event.Log) (event.Decoded, error) {
	if !log.Decodable() {
		return nil, nil
	}

	kind, ok := d.KindFor(log.Topics[0])
	if !ok {
		return nil, nil
	}

	ev := d.abi.Events[kind.EventName()]

	data, err := hexutil.Decode(log.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s data: %w", kind.EventName(), err)
	}

	vals := make(map[string]interface{})
	if err := d.abi.UnpackIntoMap(vals, kind.EventName(), data); err != nil {
		return nil, fmt.Errorf("unpack %s data: %w", kind.EventName(), err)
	}

	indexed := indexedArguments(ev.Inputs)
	if len(indexed) > 0 {
		if len(log.Topics)-1 != len(indexed) {
			return nil, fmt.Errorf("unpack %s topics: want %d indexed topics, have %d",
				kind.EventName(), len(indexed), len(log.Topics)-1)
		}
		topics := make([]common.Hash, 0, len(log.Topics)-1)
		for _, t := range log.Topics[1:] {
			topics = append(topics, common.HexToHash(t))
		}
		if err := abi.ParseTopicsIntoMap(vals, indexed, topics); err != nil {
			return nil, fmt.Errorf("unpack %s topics: %w", kind.EventName(), err)
		}
	}

	env := event.Envelope{
		ID:               log.Identity,
		BlockNumber:      log.BlockNumber,
		TransactionHash:  log.TransactionHash,
		OrderBookAddress: log.Address,
	}

	decoded, err := d.builders[kind](env, vals)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", kind.EventName(), err)
	}
	return decoded, nil
}

func indexedArguments(inputs abi.Arguments) abi.Arguments {
	var indexed abi.Arguments
	for _, arg := range inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func buildTrade(env event.Envelope, vals map[string]interface{}) (event.Decoded, error) {
	orderID, err := numericField(vals, "orderId")
	if err != nil {
		return nil, err
	}
	maker, err := addressField(vals, "makerAddress")
	if err != nil {
		return nil, err
	}
	isBuy, err := boolField(vals, "isBuy")
	if err != nil {
		return nil, err
	}
	price, err := numericField(vals, "price")
	if err != nil {
		return nil, err
	}
	updatedSize, err := numericField(vals, "updatedSize")
	if err != nil {
		return nil, err
	}
	taker, err := addressField(vals, "takerAddress")
	if err != nil {
		return nil, err
	}
	txOrigin, err := addressField(vals, "txOrigin")
	if err != nil {
		return nil, err
	}
	filledSize, err := numericField(vals, "filledSize")
	if err != nil {
		return nil, err
	}

	return &event.Trade{
		Envelope:     env,
		OrderID:      orderID,
		MakerAddress: maker,
		IsBuy:        isBuy,
		Price:        price,
		UpdatedSize:  updatedSize,
		TakerAddress: taker,
		TxOrigin:     txOrigin,
		FilledSize:   filledSize,
	}, nil
}

func buildOrderCreated(env event.Envelope, vals map[string]interface{}) (event.Decoded, error) {
	orderID, err := numericField(vals, "orderId")
	if err != nil {
		return nil, err
	}
	owner, err := addressField(vals, "owner")
	if err != nil {
		return nil, err
	}
	size, err := numericField(vals, "size")
	if err != nil {
		return nil, err
	}
	price, err := numericField(vals, "price")
	if err != nil {
		return nil, err
	}
	isBuy, err := boolField(vals, "isBuy")
	if err != nil {
		return nil, err
	}

	return &event.OrderCreated{
		Envelope: env,
		OrderID:  orderID,
		Owner:    owner,
		Size:     size,
		Price:    price,
		IsBuy:    isBuy,
	}, nil
}

func buildOrdersCanceled(env event.Envelope, vals map[string]interface{}) (event.Decoded, error) {
	orderIDs, err := numericSliceField(vals, "orderId")
	if err != nil {
		return nil, err
	}
	owner, err := addressField(vals, "owner")
	if err != nil {
		return nil, err
	}

	return &event.OrdersCanceled{
		Envelope: env,
		OrderIDs: orderIDs,
		Owner:    owner,
	}, nil
}

func buildInitialized(env event.Envelope, vals map[string]interface{}) (event.Decoded, error) {
	version, err := numericField(vals, "version")
	if err != nil {
		return nil, err
	}

	return &event.Initialized{
		Envelope: env,
		Version:  version,
	}, nil
}

func buildOwnershipHandoverCanceled(env event.Envelope, vals map[string]interface{}) (event.Decoded, error) {
	pendingOwner, err := addressField(vals, "pendingOwner")
	if err != nil {
		return nil, err
	}

	return &event.OwnershipHandoverCanceled{
		Envelope:     env,
		PendingOwner: pendingOwner,
	}, nil
}

func buildOwnershipHandoverRequested(env event.Envelope, vals map[string]interface{}) (event.Decoded, error) {
	pendingOwner, err := addressField(vals, "pendingOwner")
	if err != nil {
		return nil, err
	}

	return &event.OwnershipHandoverRequested{
		Envelope:     env,
		PendingOwner: pendingOwner,
	}, nil
}

func buildOwnershipTransferred(env event.Envelope, vals map[string]interface{}) (event.Decoded, error) {
	oldOwner, err := addressField(vals, "oldOwner")
	if err != nil {
		return nil, err
	}
	newOwner, err := addressField(vals, "newOwner")
	if err != nil {
		return nil, err
	}

	return &event.OwnershipTransferred{
		Envelope: env,
		OldOwner: oldOwner,
		NewOwner: newOwner,
	}, nil
}

func buildUpgraded(env event.Envelope, vals map[string]interface{}) (event.Decoded, error) {
	implementation, err := addressField(vals, "implementation")
	if err != nil {
		return nil, err
	}

	return &event.Upgraded{
		Envelope:       env,
		Implementation: implementation,
	}, nil
}

// numericField renders an unpacked integer as a decimal string. Widths above
// 64 bits arrive as *big.Int; narrow widths as native integers. Strings keep
// full precision for values a float or int64 would truncate.
func numericField(vals map[string]interface{}, name string) (string, error) {
	v, ok := vals[name]
	if !ok {
		return "", fmt.Errorf("missing field %s", name)
	}

	switch n := v.(type) {
	case *big.Int:
		return n.String(), nil
	case uint64:
		return fmt.Sprintf("%d", n), nil
	case uint32:
		return fmt.Sprintf("%d", n), nil
	case uint16:
		return fmt.Sprintf("%d", n), nil
	case uint8:
		return fmt.Sprintf("%d", n), nil
	case int64:
		return fmt.Sprintf("%d", n), nil
	case int32:
		return fmt.Sprintf("%d", n), nil
	default:
		return "", fmt.Errorf("field %s has unexpected type %T", name, v)
	}
}

func numericSliceField(vals map[string]interface{}, name string) ([]string, error) {
	v, ok := vals[name]
	if !ok {
		return nil, fmt.Errorf("missing field %s", name)
	}

	ints, ok := v.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("field %s has unexpected type %T", name, v)
	}

	out := make([]string, len(ints))
	for i, n := range ints {
		out[i] = n.String()
	}
	return out, nil
}

func addressField(vals map[string]interface{}, name string) (string, error) {
	v, ok := vals[name]
	if !ok {
		return "", fmt.Errorf("missing field %s", name)
	}

	addr, ok := v.(common.Address)
	if !ok {
		return "", fmt.Errorf("field %s has unexpected type %T", name, v)
	}
	return strings.ToLower(addr.Hex()), nil
}

func boolField(vals map[string]interface{}, name string) (bool, error) {
	v, ok := vals[name]
	if !ok {
		return false, fmt.Errorf("missing field %s", name)
	}

	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %s has unexpected type %T", name, v)
	}
	return b, nil
}
